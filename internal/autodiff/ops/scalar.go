package ops

import "github.com/warp-ml/warp/internal/tensor"

// AddScalarOp records output = x + s. The shift does not affect the
// gradient. SubScalar shares the same backward and reuses this node.
type AddScalarOp struct{ op }

// NewAddScalarOp creates the tape node for x + s (or x - s).
func NewAddScalarOp(x, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{op{inputs: []*tensor.RawTensor{x}, output: output}}
}

func (o *AddScalarOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad.Clone()}
}

// MulScalarOp records output = x * s.
type MulScalarOp struct {
	op
	scalar tensor.Scalar
}

// NewMulScalarOp creates the tape node for x * s.
func NewMulScalarOp(x, output *tensor.RawTensor, s tensor.Scalar) *MulScalarOp {
	return &MulScalarOp{
		op:     op{inputs: []*tensor.RawTensor{x}, output: output},
		scalar: s,
	}
}

func (o *MulScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(grad, o.scalar)}
}

// DivScalarOp records output = x / s.
type DivScalarOp struct {
	op
	scalar tensor.Scalar
}

// NewDivScalarOp creates the tape node for x / s.
func NewDivScalarOp(x, output *tensor.RawTensor, s tensor.Scalar) *DivScalarOp {
	return &DivScalarOp{
		op:     op{inputs: []*tensor.RawTensor{x}, output: output},
		scalar: s,
	}
}

func (o *DivScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.DivScalar(grad, o.scalar)}
}
