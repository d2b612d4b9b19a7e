package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/tensor"
)

func rawFrom(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func TestAddBroadcast(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := rawFrom(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := b.Add(x, y)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())
}

func TestDivInt(t *testing.T) {
	b := New()
	x, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(x.AsInt32(), []int32{7, -7, 9})
	y, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(y.AsInt32(), []int32{2, 2, 3})

	out := b.Div(x, y)
	assert.Equal(t, []int32{3, -3, 3}, out.AsInt32())
}

func TestDivInt64Exact(t *testing.T) {
	b := New()
	// Values past 2^53 are not representable in float64, so a float lane
	// would round them before dividing.
	big := int64(1)<<62 + 3
	x, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	copy(x.AsInt64(), []int64{big, -big})
	y, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	copy(y.AsInt64(), []int64{3, 3})

	out := b.Div(x, y)
	assert.Equal(t, []int64{big / 3, -big / 3}, out.AsInt64())

	scaled := b.DivScalar(x, tensor.NewScalar(int64(3)))
	assert.Equal(t, []int64{big / 3, -big / 3}, scaled.AsInt64())
}

func TestDivIntByZeroPanics(t *testing.T) {
	b := New()
	x, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	x.AsInt32()[0] = 7
	zero, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)

	assert.PanicsWithValue(t, "cpu: Div integer division by zero", func() { b.Div(x, zero) })
	assert.PanicsWithValue(t, "cpu: DivScalar integer division by zero", func() {
		b.DivScalar(x, tensor.NewScalar(int32(0)))
	})
}

func TestMatMul(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := rawFrom(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := b.MatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
}

func TestBatchMatMul(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{
		1, 0, 0, 1, // identity
		2, 0, 0, 2, // 2*identity
	}, tensor.Shape{2, 2, 2})
	y := rawFrom(t, []float32{
		1, 2, 3, 4,
		1, 2, 3, 4,
	}, tensor.Shape{2, 2, 2})

	out := b.BatchMatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 2, 4, 6, 8}, out.AsFloat32())
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	b := New()
	x := rawFrom(t, make([]float32, 6), tensor.Shape{2, 3})
	y := rawFrom(t, make([]float32, 8), tensor.Shape{2, 4})
	assert.Panics(t, func() { b.MatMul(x, y) })
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 1000, 1001, 1002}, tensor.Shape{2, 3})

	out := b.Softmax(x, -1)
	ov := out.AsFloat32()
	for row := 0; row < 2; row++ {
		sum := float64(0)
		for j := 0; j < 3; j++ {
			sum += float64(ov[row*3+j])
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
	// Large logits must not produce NaN.
	for _, v := range ov {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestConv1DShapes(t *testing.T) {
	b := New()
	input := rawFrom(t, make([]float32, 16*3*28), tensor.Shape{16, 3, 28})
	kernel := rawFrom(t, make([]float32, 8*3*3), tensor.Shape{8, 3, 3})

	out := b.Conv1D(input, kernel, 1, 0, 1, 1)
	assert.Equal(t, tensor.Shape{16, 8, 26}, out.Shape())

	out = b.Conv1D(input, kernel, 2, 0, 1, 1)
	assert.Equal(t, tensor.Shape{16, 8, 13}, out.Shape())

	out = b.Conv1D(input, kernel, 1, 1, 1, 1)
	assert.Equal(t, tensor.Shape{16, 8, 28}, out.Shape())
}

func TestConv2DValues(t *testing.T) {
	b := New()
	// 1x1x3x3 input, 1x1x2x2 kernel of ones: each output is the window sum.
	input := rawFrom(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := rawFrom(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := b.Conv2D(input, kernel, 1, 0, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{12, 16, 24, 28}, out.AsFloat32())
}

func TestConv1DGradientShapes(t *testing.T) {
	b := New()
	input := rawFrom(t, make([]float32, 2*3*10), tensor.Shape{2, 3, 10})
	kernel := rawFrom(t, make([]float32, 4*3*3), tensor.Shape{4, 3, 3})
	out := b.Conv1D(input, kernel, 2, 1, 1, 1)

	grad := rawFrom(t, make([]float32, out.NumElements()), out.Shape())
	assert.Equal(t, input.Shape(), b.Conv1DInputBackward(input, kernel, grad, 2, 1, 1, 1).Shape())
	assert.Equal(t, kernel.Shape(), b.Conv1DKernelBackward(input, kernel, grad, 2, 1, 1, 1).Shape())
}

func TestMaxPool2DWithIndices(t *testing.T) {
	b := New()
	input := rawFrom(t, []float32{
		1, 2, 5, 3,
		4, 0, 1, 2,
		9, 1, 0, 0,
		1, 1, 2, 8,
	}, tensor.Shape{1, 1, 4, 4})

	out, idx := b.MaxPool2DWithIndices(input, 2, 2)
	assert.Equal(t, []float32{4, 5, 9, 8}, out.AsFloat32())
	assert.Equal(t, []int64{4, 2, 8, 15}, idx.AsInt64())
}

func TestAvgPool2DBackwardRecoversWindow(t *testing.T) {
	b := New()
	inputShape := tensor.Shape{1, 1, 4, 4}
	grad := rawFrom(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := b.AvgPool2DBackward(grad, inputShape, 2, 2)
	// Non-overlapping 2x2 windows: every input position receives 1/4.
	for _, v := range out.AsFloat32() {
		assert.InDelta(t, 0.25, float64(v), 1e-6)
	}
}

func TestPadModes(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3}, tensor.Shape{3})

	constant := b.Pad(x, []int{1, 1}, tensor.PadConstant, 9)
	assert.Equal(t, []float32{9, 1, 2, 3, 9}, constant.AsFloat32())

	zero := b.Pad(x, []int{2, 0}, tensor.PadZero, 9)
	assert.Equal(t, []float32{0, 0, 1, 2, 3}, zero.AsFloat32())

	reflect := b.Pad(x, []int{2, 2}, tensor.PadReflect, 0)
	assert.Equal(t, []float32{3, 2, 1, 2, 3, 2, 1}, reflect.AsFloat32())

	replicate := b.Pad(x, []int{2, 1}, tensor.PadReplicate, 0)
	assert.Equal(t, []float32{1, 1, 1, 2, 3, 3}, replicate.AsFloat32())
}

func TestPadRejectsOversizedReflect(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3}, tensor.Shape{3})
	assert.Panics(t, func() { b.Pad(x, []int{3, 0}, tensor.PadReflect, 0) })
}

func TestTransposeView(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	tr := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, tr.Shape())
	assert.False(t, tr.IsContiguous())

	// Materializing through an op restores row-major layout.
	sum := b.Add(tr, tr)
	assert.Equal(t, []float32{2, 8, 4, 10, 6, 12}, sum.AsFloat32())
}

func TestCatAndChunkRoundTrip(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := rawFrom(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	cat := b.Cat([]*tensor.RawTensor{x, y}, 1)
	assert.Equal(t, tensor.Shape{2, 4}, cat.Shape())
	assert.Equal(t, []float32{1, 2, 5, 6, 3, 4, 7, 8}, cat.AsFloat32())

	parts := b.Chunk(cat, 2, 1)
	require.Len(t, parts, 2)
	assert.Equal(t, x.AsFloat32(), parts[0].AsFloat32())
	assert.Equal(t, y.AsFloat32(), parts[1].AsFloat32())
}

func TestGather(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	idx, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	copy(idx.AsInt64(), []int64{0, 2, -1, 1})

	out := b.Gather(x, 1, idx)
	assert.Equal(t, []float32{1, 3, 6, 5}, out.AsFloat32())
}

func TestWhere(t *testing.T) {
	b := New()
	cond, err := tensor.NewRaw(tensor.Shape{4}, tensor.Bool, tensor.CPU)
	require.NoError(t, err)
	copy(cond.AsBool(), []bool{true, false, true, false})
	x := rawFrom(t, []float32{1, 1, 1, 1}, tensor.Shape{4})
	y := rawFrom(t, []float32{9, 9, 9, 9}, tensor.Shape{4})

	out := b.Where(cond, x, y)
	assert.Equal(t, []float32{1, 9, 1, 9}, out.AsFloat32())
}

func TestEmbedding(t *testing.T) {
	b := New()
	weight := rawFrom(t, []float32{
		0, 0,
		1, 10,
		2, 20,
	}, tensor.Shape{3, 2})
	idx, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	copy(idx.AsInt64(), []int64{2, 1})

	out := b.Embedding(weight, idx)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 20, 1, 10}, out.AsFloat32())
}

func TestCastMatrix(t *testing.T) {
	b := New()

	x := rawFrom(t, []float32{1.7, -2.3, 0}, tensor.Shape{3})
	asInt := b.Cast(x, tensor.Int32)
	assert.Equal(t, []int32{1, -2, 0}, asInt.AsInt32())

	asBool := b.Cast(x, tensor.Bool)
	assert.Equal(t, []bool{true, true, false}, asBool.AsBool())

	asComplex := b.Cast(x, tensor.Complex64)
	assert.Equal(t, complex64(complex(1.7, 0)), asComplex.AsComplex64()[0])

	half := b.Cast(x, tensor.Float16)
	back := b.Cast(half, tensor.Float32)
	assert.InDelta(t, 1.7, float64(back.AsFloat32()[0]), 1e-3)
}

func TestCastUnsupportedPairsPanic(t *testing.T) {
	b := New()
	cx, err := tensor.NewRaw(tensor.Shape{1}, tensor.Complex64, tensor.CPU)
	require.NoError(t, err)

	assert.Panics(t, func() { b.Cast(cx, tensor.Float32) })
	assert.Panics(t, func() { b.Cast(cx, tensor.Float16) })

	half, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float16, tensor.CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { b.Cast(half, tensor.Complex128) })
}

func TestReductions(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := b.Sum(x)
	assert.Equal(t, tensor.Shape{}, sum.Shape())
	assert.Equal(t, float32(21), sum.AsFloat32()[0])

	byRow := b.SumDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, byRow.Shape())
	assert.Equal(t, []float32{6, 15}, byRow.AsFloat32())

	kept := b.MeanDim(x, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, kept.Shape())
	assert.Equal(t, []float32{2.5, 3.5, 4.5}, kept.AsFloat32())

	arg := b.Argmax(x, 1)
	assert.Equal(t, []int64{2, 2}, arg.AsInt64())
}

func TestTransferRejectsAccelerators(t *testing.T) {
	b := New()
	x := rawFrom(t, []float32{1}, tensor.Shape{1})

	same, err := b.Transfer(x, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, x.AsFloat32(), same.AsFloat32())

	_, err = b.Transfer(x, tensor.CUDA)
	assert.ErrorIs(t, err, tensor.ErrDeviceUnavailable)
}
