package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/tensor"
)

func tensorFrom(t *testing.T, b *cpu.Backend, data []float32, shape ...int) *tensor.Tensor[float32, *cpu.Backend] {
	t.Helper()
	ten, err := tensor.FromSlice[float32, *cpu.Backend](data, tensor.Shape(shape), b)
	require.NoError(t, err)
	return ten
}

func setParam[B tensor.Backend](p *Parameter[B], values []float32) {
	copy(p.Tensor().Data(), values)
}

func TestLinearForwardValues(t *testing.T) {
	b := cpu.New()
	l := NewLinear(b, 2, 2, true)
	setParam(l.Weight(), []float32{1, 2, 3, 4}) // rows are output neurons
	setParam(l.Bias(), []float32{10, 20})

	x := tensorFrom(t, b, []float32{1, 1}, 1, 2)
	y := l.Forward(x)

	assert.Equal(t, tensor.Shape{1, 2}, y.Shape())
	assert.InDeltaSlice(t, []float32{13, 27}, y.Data(), 1e-6)
}

func TestLinearHandlesBatchedRank3Input(t *testing.T) {
	b := cpu.New()
	l := NewLinear(b, 4, 3, true)

	x := tensorFrom(t, b, make([]float32, 2*5*4), 2, 5, 4)
	y := l.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 3}, y.Shape())
}

func TestLinearRejectsWrongTrailingDim(t *testing.T) {
	b := cpu.New()
	l := NewLinear(b, 4, 3, true)
	x := tensorFrom(t, b, make([]float32, 6), 2, 3)
	assert.Panics(t, func() { l.Forward(x) })
}

func TestDropoutTrainEval(t *testing.T) {
	b := cpu.New()
	d := NewDropout[*cpu.Backend](0.5)
	x := tensorFrom(t, b, onesSlice(1000), 1000)

	y := d.Forward(x)
	zeros := 0
	for _, v := range y.Data() {
		if v == 0 {
			zeros++
		} else {
			assert.InDelta(t, 2.0, v, 1e-6) // survivors scaled by 1/(1-p)
		}
	}
	assert.Greater(t, zeros, 300)
	assert.Less(t, zeros, 700)

	d.Eval()
	same := d.Forward(x)
	assert.Equal(t, x.Data(), same.Data())
}

func TestDropoutZeroProbabilityIsIdentity(t *testing.T) {
	b := cpu.New()
	d := NewDropout[*cpu.Backend](0)
	x := tensorFrom(t, b, []float32{1, 2, 3}, 3)
	assert.Equal(t, x.Data(), d.Forward(x).Data())
}

func TestDropoutInPlaceRejectsTrackedInput(t *testing.T) {
	b := cpu.New()
	d := NewDropoutInPlace[*cpu.Backend](0.5)
	x := tensorFrom(t, b, onesSlice(8), 8).RequireGrad()
	assert.Panics(t, func() { d.Forward(x) })
}

func TestLayerNormNormalizesRows(t *testing.T) {
	b := cpu.New()
	n := NewLayerNorm(b, 4)

	x := tensorFrom(t, b, []float32{1, 2, 3, 4, 10, 20, 30, 40}, 2, 4)
	y := n.Forward(x)

	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 4; col++ {
			sum += y.Data()[row*4+col]
		}
		assert.InDelta(t, 0.0, sum, 1e-4)
	}
}

func TestBatchNorm2dTrainingNormalizes(t *testing.T) {
	b := cpu.New()
	n := NewBatchNorm2d(b, 1)

	x := tensorFrom(t, b, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	y := n.Forward(x)

	var sum float32
	for _, v := range y.Data() {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 1e-4)

	// Running statistics moved toward the batch statistics.
	assert.InDelta(t, 0.25, n.RunningMean().Data()[0], 1e-4) // 0.9*0 + 0.1*2.5
	assert.Greater(t, n.RunningVar().Data()[0], float32(0.9))
}

func TestBatchNorm2dEvalUsesRunningStats(t *testing.T) {
	b := cpu.New()
	n := NewBatchNorm2d(b, 1)
	n.Eval()

	// With fresh running stats (mean 0, var 1) eval is near identity.
	x := tensorFrom(t, b, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	y := n.Forward(x)
	assert.InDeltaSlice(t, x.Data(), y.Data(), 1e-3)
}

func TestBatchNorm1dShapes(t *testing.T) {
	b := cpu.New()
	n := NewBatchNorm1d(b, 3)

	y := n.Forward(tensorFrom(t, b, make([]float32, 12), 4, 3))
	assert.Equal(t, tensor.Shape{4, 3}, y.Shape())

	y = n.Forward(tensorFrom(t, b, make([]float32, 30), 2, 3, 5))
	assert.Equal(t, tensor.Shape{2, 3, 5}, y.Shape())
}

func TestConv2dForwardShape(t *testing.T) {
	b := cpu.New()
	c := NewConv2d(b, 3, 8, 3, DefaultConvOptions())

	x := tensorFrom(t, b, make([]float32, 2*3*16*16), 2, 3, 16, 16)
	y := c.Forward(x)
	assert.Equal(t, tensor.Shape{2, 8, 14, 14}, y.Shape())
}

func TestConv1dPaddingPreservesLength(t *testing.T) {
	b := cpu.New()
	opts := DefaultConvOptions()
	opts.Padding = 1
	c := NewConv1d(b, 2, 4, 3, opts)

	x := tensorFrom(t, b, make([]float32, 1*2*10), 1, 2, 10)
	y := c.Forward(x)
	assert.Equal(t, tensor.Shape{1, 4, 10}, y.Shape())
}

func TestPoolingLayers(t *testing.T) {
	b := cpu.New()
	x := tensorFrom(t, b, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 1, 4, 4)

	maxed := NewMaxPool2d[*cpu.Backend](2, 0).Forward(x)
	assert.Equal(t, []float32{6, 8, 14, 16}, maxed.Data())

	avg := NewAvgPool2d[*cpu.Backend](2, 0).Forward(x)
	assert.Equal(t, []float32{3.5, 5.5, 11.5, 13.5}, avg.Data())
}

func TestPad2dShapes(t *testing.T) {
	b := cpu.New()
	x := tensorFrom(t, b, []float32{1, 2, 3, 4}, 1, 1, 2, 2)

	y := NewZeroPad2d[*cpu.Backend](1, 1, 2, 0).Forward(x)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, y.Shape())

	y = NewReplicationPad2d[*cpu.Backend](1, 0, 0, 0).Forward(x)
	assert.Equal(t, []float32{1, 1, 2, 3, 3, 4}, y.Data())
}

func TestUpsampleNearest(t *testing.T) {
	b := cpu.New()
	x := tensorFrom(t, b, []float32{1, 2, 3, 4}, 1, 1, 2, 2)

	y := NewUpsample[*cpu.Backend](2).Forward(x)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, y.Shape())
	assert.Equal(t, []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, y.Data())
}

func TestEmbeddingLookup(t *testing.T) {
	b := cpu.New()
	e := NewEmbedding(b, 4, 2)
	setParam(e.Weight(), []float32{0, 0, 10, 11, 20, 21, 30, 31})

	idx, err := tensor.FromSlice[int64, *cpu.Backend]([]int64{3, 1}, tensor.Shape{2}, b)
	require.NoError(t, err)

	y := e.Lookup(idx)
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.Equal(t, []float32{30, 31, 10, 11}, y.Data())
}

func TestRNNCellStepShapes(t *testing.T) {
	b := cpu.New()
	c := NewRNNCell(b, 3, 5)

	x := tensorFrom(t, b, make([]float32, 2*3), 2, 3)
	h := c.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5}, h.Shape())

	h2 := c.Step(x, h)
	assert.Equal(t, tensor.Shape{2, 5}, h2.Shape())
}

func TestLSTMCellStateFlows(t *testing.T) {
	b := cpu.New()
	c := NewLSTMCell(b, 3, 4)

	x := tensorFrom(t, b, []float32{1, -1, 0.5, 0, 1, -0.5}, 2, 3)
	h := Zeros(b, 2, 4)
	cell := Zeros(b, 2, 4)

	h1, c1 := c.Step(x, h, cell)
	assert.Equal(t, tensor.Shape{2, 4}, h1.Shape())
	assert.Equal(t, tensor.Shape{2, 4}, c1.Shape())

	// Hidden values stay inside tanh range.
	for _, v := range h1.Data() {
		assert.LessOrEqual(t, v, float32(1))
		assert.GreaterOrEqual(t, v, float32(-1))
	}
}

func TestGRUCellShapes(t *testing.T) {
	b := cpu.New()
	c := NewGRUCell(b, 3, 4)
	x := tensorFrom(t, b, make([]float32, 2*3), 2, 3)
	h := c.Forward(x)
	assert.Equal(t, tensor.Shape{2, 4}, h.Shape())
}

func TestMultiheadAttentionShapes(t *testing.T) {
	b := cpu.New()
	a := NewMultiheadAttention(b, 8, 2, 0)

	x := tensorFrom(t, b, make([]float32, 2*5*8), 2, 5, 8)
	y := a.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 8}, y.Shape())
}

func TestMultiheadAttentionCausalMask(t *testing.T) {
	b := cpu.New()
	a := NewMultiheadAttention(b, 4, 1, 0)
	a.Eval()

	x := tensorFrom(t, b, randomish(3*4), 1, 3, 4)
	mask := CausalMask(b, 3)
	y := a.Attend(x, x, x, mask.Reshape(1, 1, 3, 3))
	assert.Equal(t, tensor.Shape{1, 3, 4}, y.Shape())
}

func TestTransformerEncoderLayerShape(t *testing.T) {
	b := cpu.New()
	l := NewTransformerEncoderLayer(b, 8, 2, 16, 0)
	l.Eval()

	x := tensorFrom(t, b, randomish(2*4*8), 2, 4, 8)
	y := l.Forward(x)
	assert.Equal(t, tensor.Shape{2, 4, 8}, y.Shape())
}

func TestTransformerDecoderLayerShape(t *testing.T) {
	b := cpu.New()
	l := NewTransformerDecoderLayer(b, 8, 2, 16, 0)
	l.Eval()

	tgt := tensorFrom(t, b, randomish(1*3*8), 1, 3, 8)
	memory := tensorFrom(t, b, randomish(1*5*8), 1, 5, 8)
	y := l.Decode(tgt, memory, nil, nil)
	assert.Equal(t, tensor.Shape{1, 3, 8}, y.Shape())
}

func TestGELUMonotoneAroundZero(t *testing.T) {
	b := cpu.New()
	g := NewGELU[*cpu.Backend]()
	x := tensorFrom(t, b, []float32{-2, 0, 2}, 3)
	y := g.Forward(x)
	assert.InDelta(t, 0.0, y.Data()[1], 1e-6)
	assert.Less(t, y.Data()[0], float32(0))
	assert.InDelta(t, 1.954, y.Data()[2], 0.01)
}

func onesSlice(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func randomish(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32((i*2654435761)%17)/17 - 0.5
	}
	return out
}
