package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("no WebGPU adapter on this system")
	}
	b, err := New()
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func rawFrom(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestShaderTemplatesExpand(t *testing.T) {
	for name, code := range binaryShaders {
		assert.NotContains(t, code, "OP", "binary %s", name)
	}
	for name, code := range unaryShaders {
		assert.NotContains(t, code, "OP", "unary %s", name)
	}
	for name, code := range scalarShaders {
		assert.NotContains(t, code, "OP", "scalar %s", name)
	}
}

func TestAddOnDevice(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := rawFrom(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := b.Add(x, y)
	assert.Equal(t, tensor.WebGPU, out.Device())
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestMatMulOnDevice(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := rawFrom(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := b.MatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
}

func TestUnaryOnDevice(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{-1, 0, 2, -3}, tensor.Shape{4})
	out := b.ReLU(x)
	assert.Equal(t, []float32{0, 0, 2, 0}, out.AsFloat32())

	neg := b.Neg(x)
	assert.Equal(t, []float32{1, 0, -2, 3}, neg.AsFloat32())
}

func TestScalarOnDevice(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{1, 2, 3}, tensor.Shape{3})
	out := b.MulScalar(x, tensor.NewScalar(float32(2.5)))
	assert.Equal(t, []float32{2.5, 5, 7.5}, out.AsFloat32())
}

func TestSoftmaxOnDevice(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{0, 0, 0, 0}, tensor.Shape{2, 2})
	out := b.Softmax(x, -1)
	for _, v := range out.AsFloat32() {
		assert.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestHostFallbackForUnsupported(t *testing.T) {
	b := newBackend(t)

	// int64 tensors have no shader path; the host fallback must serve them.
	x, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.WebGPU)
	require.NoError(t, err)
	copy(x.AsInt64(), []int64{1, 2, 3})

	out := b.Add(x, x)
	assert.Equal(t, []int64{2, 4, 6}, out.AsInt64())
}

func TestTransferRetags(t *testing.T) {
	b := newBackend(t)

	x := rawFrom(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	host, err := b.Transfer(x, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, host.Device())
	assert.Equal(t, x.AsFloat32(), host.AsFloat32())

	_, err = b.Transfer(x, tensor.CUDA)
	assert.ErrorIs(t, err, tensor.ErrDeviceUnavailable)
}
