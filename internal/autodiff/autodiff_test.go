package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/tensor"
)

func newBackend() *AutodiffBackend[*cpu.Backend] {
	return New(cpu.New())
}

func scalar(t *testing.T, b *AutodiffBackend[*cpu.Backend], v float32) *tensor.Tensor[float32, *AutodiffBackend[*cpu.Backend]] {
	t.Helper()
	x, err := tensor.FromSlice([]float32{v}, tensor.Shape{}, b)
	require.NoError(t, err)
	return x
}

func TestMulChainRule(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 3).RequireGrad()
	y := x.Mul(x) // y = x^2

	grads, err := Backward(y, b)
	require.NoError(t, err)

	g := grads.Of(x.Raw())
	require.NotNil(t, g)
	assert.InDelta(t, 6.0, float64(g.AsFloat32()[0]), 1e-6) // dy/dx = 2x
}

func TestBackwardRequiresScalarOutput(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b)
	require.NoError(t, err)
	y := x.RequireGrad().Mul(x)

	_, err = Backward(y, b)
	assert.ErrorIs(t, err, tensor.ErrNonScalarBackward)
}

func TestBackwardWithExplicitGrad(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b)
	require.NoError(t, err)
	x.RequireGrad()
	y := x.Mul(x)

	seed, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(seed.AsFloat32(), []float32{1, 1, 1})

	grads, err := BackwardWithGrad(y, seed, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6}, grads.Of(x.Raw()).AsFloat32())
}

func TestSecondBackwardFailsWithoutRetain(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	y := x.Mul(x)

	_, err := Backward(y, b)
	require.NoError(t, err)

	_, err = Backward(y, b)
	assert.ErrorIs(t, err, tensor.ErrGraphFreed)
}

func TestBackwardRetainAllowsSecondPass(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	y := x.Mul(x)

	first, err := BackwardRetain(y, b)
	require.NoError(t, err)
	second, err := BackwardRetain(y, b)
	require.NoError(t, err)

	assert.Equal(t, first.Of(x.Raw()).AsFloat32(), second.Of(x.Raw()).AsFloat32())
}

func TestGradAccumulationAcrossPasses(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	y := x.Mul(x)

	for i := 0; i < 3; i++ {
		grads, err := BackwardRetain(y, b)
		require.NoError(t, err)
		x.AccumulateGrad(grads.Of(x.Raw()))
	}
	assert.InDelta(t, 12.0, float64(x.Grad().Data()[0]), 1e-5)

	x.ZeroGrad()
	assert.Nil(t, x.Grad())
}

func TestNoGradScopeSuppressesRecording(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()

	exit := b.Tape().NoGrad()
	inner := b.Tape().NoGrad() // scopes nest
	_ = x.Mul(x)
	inner()
	_ = x.Mul(x)
	exit()

	assert.Equal(t, 0, b.Tape().NumOps())

	_ = x.Mul(x)
	assert.Equal(t, 1, b.Tape().NumOps())
}

func TestUntrackedInputsAreNotRecorded(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2) // no RequireGrad
	_ = x.Mul(x)

	assert.Equal(t, 0, b.Tape().NumOps())
}

func TestUntakenBranchGetsNoGradient(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	z := scalar(t, b, 5).RequireGrad() // never used in the graph
	y := x.Mul(x)

	grads, err := Backward(y, b)
	require.NoError(t, err)
	assert.NotNil(t, grads.Of(x.Raw()))
	assert.Nil(t, grads.Of(z.Raw()))
}

func TestDetachCutsGradientFlow(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	d := x.Detach()
	y := d.Mul(d)

	grads, err := Backward(y, b)
	require.NoError(t, err)
	assert.Nil(t, grads.Of(x.Raw()))
}

func TestBroadcastGradientReduction(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	bias, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b)
	require.NoError(t, err)
	bias.RequireGrad()
	x, err := tensor.FromSlice([]float32{1, 1, 1, 1, 1, 1}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)

	sum := x.Add(bias).Sum()
	grads, err := Backward(sum, b)
	require.NoError(t, err)

	// bias was broadcast over the batch of 2, so its gradient sums to 2.
	assert.Equal(t, []float32{2, 2, 2}, grads.Of(bias.Raw()).AsFloat32())
}

func TestMatMulGradients(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	a.RequireGrad()
	w, err := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	w.RequireGrad()

	loss := a.MatMul(w).Sum()
	grads, err := Backward(loss, b)
	require.NoError(t, err)

	// d(sum(A@W))/dA = ones @ W^T, d/dW = A^T @ ones.
	assert.Equal(t, []float32{11, 15, 11, 15}, grads.Of(a.Raw()).AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, grads.Of(w.Raw()).AsFloat32())
}

func TestChunkCatRoundTripGradient(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, b)
	require.NoError(t, err)
	x.RequireGrad()

	parts := b.Chunk(x.Raw(), 2, 0)
	joined := b.Cat(parts, 0)
	total := b.Sum(joined)

	grads, err := b.GetTape().Backward(total, onesF32(t, tensor.Shape{}), b, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 1}, grads[x.Raw()].AsFloat32())
}

func TestBackwardSeedsRequestedOutput(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 3).RequireGrad()
	w := scalar(t, b, 4).RequireGrad()

	loss := x.Mul(x)
	metric := w.Mul(w) // recorded after loss, not part of its graph

	grads, err := Backward(loss, b)
	require.NoError(t, err)

	g := grads.Of(x.Raw())
	require.NotNil(t, g)
	assert.InDelta(t, 6.0, float64(g.AsFloat32()[0]), 1e-6)
	assert.Nil(t, grads.Of(w.Raw()))
	assert.Nil(t, grads.Of(metric.Raw()))
}

func TestBackwardOnTensorOutsideGraph(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := scalar(t, b, 2).RequireGrad()
	_ = x.Mul(x)

	leaf := scalar(t, b, 7) // no recorded operation produced it
	_, err := Backward(leaf, b)
	assert.ErrorIs(t, err, tensor.ErrNotInGraph)
}

func TestBackwardWithGradRejectsDeviceMismatch(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b)
	require.NoError(t, err)
	x.RequireGrad()
	y := x.Mul(x)

	seed, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)

	_, err = BackwardWithGrad(y, seed, b)
	assert.ErrorIs(t, err, tensor.ErrDeviceUnavailable)
}

func onesF32(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	for i := range r.AsFloat32() {
		r.AsFloat32()[i] = 1
	}
	return r
}
