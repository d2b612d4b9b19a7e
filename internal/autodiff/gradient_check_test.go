package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/tensor"
)

// numericGradient estimates df/dx[i] with central differences, evaluating f
// outside any recording scope.
func numericGradient(
	b *AutodiffBackend[*cpu.Backend],
	x *tensor.RawTensor,
	f func() float64,
	eps float64,
) []float64 {
	exit := b.Tape().NoGrad()
	defer exit()

	data := x.AsFloat64()
	grads := make([]float64, len(data))
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := f()
		data[i] = orig - eps
		minus := f()
		data[i] = orig
		grads[i] = (plus - minus) / (2 * eps)
	}
	return grads
}

func TestGradientCheckSigmoidMatMul(t *testing.T) {
	b := newBackend()

	x, err := tensor.FromSlice([]float64{0.5, -1.2, 0.3, 2.0}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	w, err := tensor.FromSlice([]float64{0.1, -0.4, 0.7, 0.2}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)

	forward := func() float64 {
		return x.MatMul(w).Sigmoid().Sum().Item()
	}

	numeric := numericGradient(b, x.Raw(), forward, 1e-6)

	b.Tape().StartRecording()
	x.RequireGrad()
	loss := x.MatMul(w).Sigmoid().Sum()
	grads, err := Backward(loss, b)
	require.NoError(t, err)

	analytic := grads.Of(x.Raw()).AsFloat64()
	require.Len(t, analytic, len(numeric))
	for i := range numeric {
		assert.InDelta(t, numeric[i], analytic[i], 1e-5, "component %d", i)
	}
}

func TestGradientCheckSoftmax(t *testing.T) {
	b := newBackend()

	x, err := tensor.FromSlice([]float64{1.0, 2.0, -0.5, 0.1, 0.2, 0.3}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)

	// Weighted sum of probabilities keeps the loss sensitive to every
	// logit (plain Sum of softmax is constant per row).
	weights, err := tensor.FromSlice([]float64{1, 2, 3, 1, 2, 3}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)

	forward := func() float64 {
		return x.Softmax(-1).Mul(weights).Sum().Item()
	}
	numeric := numericGradient(b, x.Raw(), forward, 1e-6)

	b.Tape().StartRecording()
	x.RequireGrad()
	loss := x.Softmax(-1).Mul(weights).Sum()
	grads, err := Backward(loss, b)
	require.NoError(t, err)

	analytic := grads.Of(x.Raw()).AsFloat64()
	for i := range numeric {
		assert.InDelta(t, numeric[i], analytic[i], 1e-5, "component %d", i)
	}
}

func TestGradientCheckConv2D(t *testing.T) {
	b := newBackend()

	input, err := tensor.FromSlice([]float64{
		0.5, -0.3, 0.8,
		0.1, 0.9, -0.2,
		0.4, 0.0, 0.6,
	}, tensor.Shape{1, 1, 3, 3}, b)
	require.NoError(t, err)
	kernel, err := tensor.FromSlice([]float64{0.2, -0.5, 0.3, 0.7}, tensor.Shape{1, 1, 2, 2}, b)
	require.NoError(t, err)

	forward := func() float64 {
		out := b.Conv2D(input.Raw(), kernel.Raw(), 1, 0, 1, 1)
		return b.Sum(out).AsFloat64()[0]
	}
	numericInput := numericGradient(b, input.Raw(), forward, 1e-6)
	numericKernel := numericGradient(b, kernel.Raw(), forward, 1e-6)

	b.Tape().StartRecording()
	input.RequireGrad()
	kernel.RequireGrad()
	out := b.Conv2D(input.Raw(), kernel.Raw(), 1, 0, 1, 1)
	sum := b.Sum(out)

	seed, err := tensor.NewRaw(tensor.Shape{}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	seed.AsFloat64()[0] = 1
	grads, err := b.GetTape().Backward(sum, seed, b, false)
	require.NoError(t, err)

	analyticInput := grads[input.Raw()].AsFloat64()
	analyticKernel := grads[kernel.Raw()].AsFloat64()
	for i := range numericInput {
		assert.InDelta(t, numericInput[i], analyticInput[i], 1e-5)
	}
	for i := range numericKernel {
		assert.InDelta(t, numericKernel[i], analyticKernel[i], 1e-5)
	}
}
