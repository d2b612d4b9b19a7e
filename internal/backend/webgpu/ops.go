package webgpu

import (
	"github.com/warp-ml/warp/internal/tensor"
)

// GPU dispatch covers contiguous float32 tensors with exact shapes; the
// remaining combinations (broadcasts, other dtypes, strided views) run on
// the host fallback. A failed dispatch also falls back so a flaky driver
// degrades to slow instead of broken.

func (b *Backend) binary(name string, x, y *tensor.RawTensor) *tensor.RawTensor {
	if dispatchable(x, y) && x.Shape().Equal(y.Shape()) {
		out, err := b.runBinaryOp(name, x, y)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", name, "error", err)
	}
	return b.fallbackBinary(name, x, y)
}

func (b *Backend) fallbackBinary(name string, x, y *tensor.RawTensor) *tensor.RawTensor {
	switch name {
	case "add":
		return b.fallback.Add(x, y)
	case "sub":
		return b.fallback.Sub(x, y)
	case "mul":
		return b.fallback.Mul(x, y)
	default:
		return b.fallback.Div(x, y)
	}
}

// Add performs element-wise addition.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor { return b.binary("add", x, y) }

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor { return b.binary("sub", x, y) }

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor { return b.binary("mul", x, y) }

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor { return b.binary("div", x, y) }

// MatMul computes [M, K] @ [K, N] -> [M, N] on the device.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if dispatchable(x, y) && len(x.Shape()) == 2 && len(y.Shape()) == 2 &&
		x.Shape()[1] == y.Shape()[0] {
		out, err := b.runMatMul(x, y)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", "matmul", "error", err)
	}
	return b.fallback.MatMul(x, y)
}

// BatchMatMul computes batched matrix products on the host.
func (b *Backend) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.BatchMatMul(x, y)
}

func (b *Backend) unary(name string, x *tensor.RawTensor) *tensor.RawTensor {
	if dispatchable(x) {
		out, err := b.runUnaryOp(name, x)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", name, "error", err)
	}
	return b.fallbackUnary(name, x)
}

func (b *Backend) fallbackUnary(name string, x *tensor.RawTensor) *tensor.RawTensor {
	switch name {
	case "neg":
		return b.fallback.Neg(x)
	case "exp":
		return b.fallback.Exp(x)
	case "log":
		return b.fallback.Log(x)
	case "sqrt":
		return b.fallback.Sqrt(x)
	case "rsqrt":
		return b.fallback.Rsqrt(x)
	case "tanh":
		return b.fallback.Tanh(x)
	case "sigmoid":
		return b.fallback.Sigmoid(x)
	default:
		return b.fallback.ReLU(x)
	}
}

// Neg negates every element.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("neg", x) }

// Exp applies the exponential element-wise.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("exp", x) }

// Log applies the natural logarithm element-wise.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("log", x) }

// Sqrt applies the square root element-wise.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("sqrt", x) }

// Rsqrt applies the reciprocal square root element-wise.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("rsqrt", x) }

// Tanh applies the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("tanh", x) }

// Sigmoid applies the logistic function element-wise.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("sigmoid", x) }

// ReLU clamps negative elements to zero.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor { return b.unary("relu", x) }

// scalarValue extracts a float payload from a boxed scalar when the boxed
// type converts cleanly to f32.
func scalarValue(s tensor.Scalar) (float64, bool) {
	dt := s.DType()
	if dt.IsFloat() || dt.IsInteger() {
		return s.Float64(), true
	}
	return 0, false
}

func (b *Backend) scalar(name string, x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	if v, ok := scalarValue(s); ok && dispatchable(x) {
		out, err := b.runScalarOp(name, x, v)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", name, "error", err)
	}
	switch name {
	case "adds":
		return b.fallback.AddScalar(x, s)
	case "subs":
		return b.fallback.SubScalar(x, s)
	case "muls":
		return b.fallback.MulScalar(x, s)
	default:
		return b.fallback.DivScalar(x, s)
	}
}

// AddScalar adds a boxed literal to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return b.scalar("adds", x, s)
}

// SubScalar subtracts a boxed literal from every element.
func (b *Backend) SubScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return b.scalar("subs", x, s)
}

// MulScalar multiplies every element by a boxed literal.
func (b *Backend) MulScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return b.scalar("muls", x, s)
}

// DivScalar divides every element by a boxed literal.
func (b *Backend) DivScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return b.scalar("divs", x, s)
}

// Pow raises every element to a fixed exponent.
func (b *Backend) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	if dispatchable(x) {
		out, err := b.runScalarOp("pow", x, exponent)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", "pow", "error", err)
	}
	return b.fallback.Pow(x, exponent)
}

// Softmax normalizes along a dimension. Row softmax on 2D tensors runs on
// the device; other ranks and dims run on the host.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if dispatchable(x) && len(x.Shape()) == 2 && (dim == 1 || dim == -1) {
		out, err := b.runSoftmax(x)
		if err == nil {
			return out
		}
		b.log.Warn("dispatch failed, using host fallback", "op", "softmax", "error", err)
	}
	return b.fallback.Softmax(x, dim)
}

// Host-delegated operations.

func (b *Backend) Conv1D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv1D(input, kernel, stride, padding, dilation, groups)
}

func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv2D(input, kernel, stride, padding, dilation, groups)
}

func (b *Backend) Conv1DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv1DInputBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *Backend) Conv1DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv1DKernelBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv2DInputBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding, dilation, groups int) *tensor.RawTensor {
	return b.fallback.Conv2DKernelBackward(input, kernel, grad, stride, padding, dilation, groups)
}

func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.fallback.MaxPool2D(input, kernelSize, stride)
}

func (b *Backend) MaxPool2DWithIndices(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, *tensor.RawTensor) {
	return b.fallback.MaxPool2DWithIndices(input, kernelSize, stride)
}

func (b *Backend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.fallback.AvgPool2D(input, kernelSize, stride)
}

func (b *Backend) AvgPool2DBackward(grad *tensor.RawTensor, inputShape tensor.Shape, kernelSize, stride int) *tensor.RawTensor {
	return b.fallback.AvgPool2DBackward(grad, inputShape, kernelSize, stride)
}

func (b *Backend) Pad(x *tensor.RawTensor, pads []int, mode tensor.PadMode, value float64) *tensor.RawTensor {
	return b.fallback.Pad(x, pads, mode, value)
}

func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Reshape(t, newShape)
}

func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.fallback.Transpose(t, axes...)
}

func (b *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Expand(x, shape)
}

func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Unsqueeze(x, dim)
}

func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Squeeze(x, dim)
}

func (b *Backend) Greater(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Greater(x, y)
}

func (b *Backend) Equal(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Equal(x, y)
}

func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Sum(x)
}

func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.fallback.SumDim(x, dim, keepDim)
}

func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.fallback.MeanDim(x, dim, keepDim)
}

func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Argmax(x, dim)
}

func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Cat(tensors, dim)
}

func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	return b.fallback.Chunk(x, n, dim)
}

func (b *Backend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Gather(x, dim, index)
}

func (b *Backend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Where(condition, x, y)
}

func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Embedding(weight, indices)
}

func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.fallback.Cast(x, dtype)
}
