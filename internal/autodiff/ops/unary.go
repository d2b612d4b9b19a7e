package ops

import "github.com/warp-ml/warp/internal/tensor"

// unaryOp is a single-input node whose backward is a closure over the
// saved forward tensors. The element-wise unary family shares it.
type unaryOp struct {
	op
	backward func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor
}

func (o *unaryOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{o.backward(grad, backend)}
}

func newUnary(x, output *tensor.RawTensor,
	backward func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor,
) *unaryOp {
	return &unaryOp{
		op:       op{inputs: []*tensor.RawTensor{x}, output: output},
		backward: backward,
	}
}

// NewNegOp records output = -x.
func NewNegOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		return backend.Neg(grad)
	})
}

// NewExpOp records output = exp(x). d/dx = output.
func NewExpOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		return backend.Mul(grad, output)
	})
}

// NewLogOp records output = log(x). d/dx = 1/x.
func NewLogOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		return backend.Div(grad, x)
	})
}

// NewSqrtOp records output = sqrt(x). d/dx = 1/(2*output).
func NewSqrtOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		return backend.DivScalar(backend.Div(grad, output), tensor.NewScalar(2.0))
	})
}

// NewRsqrtOp records output = x**-1/2. d/dx = -output^3 / 2.
func NewRsqrtOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		cube := backend.Mul(backend.Mul(output, output), output)
		return backend.MulScalar(backend.Mul(grad, cube), tensor.NewScalar(-0.5))
	})
}

// NewPowOp records output = x**p. d/dx = p * x**(p-1).
func NewPowOp(x, output *tensor.RawTensor, exponent float64) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		deriv := backend.MulScalar(backend.Pow(x, exponent-1), tensor.NewScalar(exponent))
		return backend.Mul(grad, deriv)
	})
}

// NewTanhOp records output = tanh(x). d/dx = 1 - output**2.
func NewTanhOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		sq := backend.Mul(output, output)
		return backend.Mul(grad, backend.Neg(backend.SubScalar(sq, tensor.NewScalar(1.0))))
	})
}

// NewSigmoidOp records output = sigmoid(x). d/dx = output * (1 - output).
func NewSigmoidOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		oneMinus := backend.Neg(backend.SubScalar(output, tensor.NewScalar(1.0)))
		return backend.Mul(grad, backend.Mul(output, oneMinus))
	})
}

// NewReLUOp records output = relu(x). The gradient passes through only
// where the input was positive.
func NewReLUOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		mask := backend.Greater(x, zerosLike(x))
		return backend.Where(mask, grad, zerosLike(grad))
	})
}

// NewCastOp records output = cast(x, dtype). The gradient is cast back to
// the input's element type.
func NewCastOp(x, output *tensor.RawTensor) Operation {
	return newUnary(x, output, func(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
		return backend.Cast(grad, x.DType())
	})
}

// SoftmaxOp records output = softmax(x, dim).
//
//	dL/dx = output * (grad - sum(grad * output, dim, keepDim))
type SoftmaxOp struct {
	op
	dim int
}

// NewSoftmaxOp creates the tape node for softmax along dim.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{
		op:  op{inputs: []*tensor.RawTensor{x}, output: output},
		dim: dim,
	}
}

func (o *SoftmaxOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dim := o.dim
	if dim < 0 {
		dim += len(o.output.Shape())
	}
	dot := backend.SumDim(backend.Mul(grad, o.output), dim, true)
	return []*tensor.RawTensor{backend.Mul(o.output, backend.Sub(grad, dot))}
}
