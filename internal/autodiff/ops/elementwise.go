package ops

import "github.com/warp-ml/warp/internal/tensor"

// AddOp records output = a + b. The gradient flows unchanged to both
// inputs, reduced along any broadcast dimensions.
type AddOp struct{ op }

// NewAddOp creates the tape node for a + b.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *AddOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(grad, a.Shape(), backend),
		reduceBroadcast(grad, b.Shape(), backend),
	}
}

// SubOp records output = a - b.
type SubOp struct{ op }

// NewSubOp creates the tape node for a - b.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *SubOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(grad, a.Shape(), backend),
		reduceBroadcast(backend.Neg(grad), b.Shape(), backend),
	}
}

// MulOp records output = a * b.
type MulOp struct{ op }

// NewMulOp creates the tape node for a * b.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(grad, b), a.Shape(), backend),
		reduceBroadcast(backend.Mul(grad, a), b.Shape(), backend),
	}
}

// DivOp records output = a / b.
//
//	d(a/b)/da = 1/b
//	d(a/b)/db = -a/b^2 = -output/b
type DivOp struct{ op }

// NewDivOp creates the tape node for a / b.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *DivOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	gradA := backend.Div(grad, b)
	gradB := backend.Neg(backend.Div(backend.Mul(grad, o.output), b))
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// WhereOp records output = where(cond, x, y). The condition gets no
// gradient; each branch receives the output gradient masked by the
// positions it supplied.
type WhereOp struct {
	op
	cond *tensor.RawTensor
}

// NewWhereOp creates the tape node for where(cond, x, y).
func NewWhereOp(cond, x, y, output *tensor.RawTensor) *WhereOp {
	return &WhereOp{
		op:   op{inputs: []*tensor.RawTensor{cond, x, y}, output: output},
		cond: cond,
	}
}

func (o *WhereOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x, y := o.inputs[1], o.inputs[2]
	zeros := zerosLike(grad)
	return []*tensor.RawTensor{
		nil,
		reduceBroadcast(backend.Where(o.cond, grad, zeros), x.Shape(), backend),
		reduceBroadcast(backend.Where(o.cond, zeros, grad), y.Shape(), backend),
	}
}
