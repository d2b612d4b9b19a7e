package ops

import "github.com/warp-ml/warp/internal/tensor"

// SumOp records output = sum(x) over all elements. Every input element
// contributed with weight 1, so the scalar gradient is spread uniformly.
type SumOp struct{ op }

// NewSumOp creates the tape node for a full reduction.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{op{inputs: []*tensor.RawTensor{x}, output: output}}
}

func (o *SumOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := o.inputs[0].Shape()
	ones := make(tensor.Shape, len(inShape))
	for i := range ones {
		ones[i] = 1
	}
	g := backend.Reshape(grad, ones)
	g = backend.Expand(g, inShape)
	return []*tensor.RawTensor{backend.Reshape(g, inShape)}
}

// SumDimOp records output = sum(x, dim, keepDim).
type SumDimOp struct {
	op
	dim     int
	keepDim bool
}

// NewSumDimOp creates the tape node for a dimension reduction.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		op:      op{inputs: []*tensor.RawTensor{x}, output: output},
		dim:     dim,
		keepDim: keepDim,
	}
}

func (o *SumDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := o.inputs[0].Shape()
	dim := o.dim
	if dim < 0 {
		dim += len(inShape)
	}
	return []*tensor.RawTensor{spreadToShape(grad, inShape, dim, o.keepDim, backend)}
}

// MeanDimOp records output = mean(x, dim, keepDim). Like SumDimOp with the
// gradient scaled by 1/n.
type MeanDimOp struct {
	op
	dim     int
	keepDim bool
}

// NewMeanDimOp creates the tape node for a mean reduction.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{
		op:      op{inputs: []*tensor.RawTensor{x}, output: output},
		dim:     dim,
		keepDim: keepDim,
	}
}

func (o *MeanDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := o.inputs[0].Shape()
	dim := o.dim
	if dim < 0 {
		dim += len(inShape)
	}
	spread := spreadToShape(grad, inShape, dim, o.keepDim, backend)
	scaled := backend.DivScalar(spread, tensor.NewScalar(float64(inShape[dim])))
	return []*tensor.RawTensor{scaled}
}
