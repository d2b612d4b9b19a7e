package ops

import "github.com/warp-ml/warp/internal/tensor"

// MatMulOp records output = a @ b for 2D operands.
//
//	d(A@B)/dA = grad @ B^T
//	d(A@B)/dB = A^T @ grad
type MatMulOp struct{ op }

// NewMatMulOp creates the tape node for a @ b.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *MatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		backend.MatMul(grad, backend.Transpose(b)),
		backend.MatMul(backend.Transpose(a), grad),
	}
}

// BatchMatMulOp records output = a @ b over leading batch dimensions.
type BatchMatMulOp struct{ op }

// NewBatchMatMulOp creates the tape node for batched a @ b.
func NewBatchMatMulOp(a, b, output *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{op{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

func (o *BatchMatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := o.inputs[0], o.inputs[1]
	return []*tensor.RawTensor{
		backend.BatchMatMul(grad, transposeLastTwo(b, backend)),
		backend.BatchMatMul(transposeLastTwo(a, backend), grad),
	}
}

// transposeLastTwo swaps the matrix dimensions of a batched operand,
// leaving batch dimensions in place.
func transposeLastTwo(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	nd := len(x.Shape())
	axes := make([]int, nd)
	for i := range axes {
		axes[i] = i
	}
	axes[nd-2], axes[nd-1] = axes[nd-1], axes[nd-2]
	return backend.Transpose(x, axes...)
}
