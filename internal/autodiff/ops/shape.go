package ops

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// ReshapeOp records output = reshape(x). The gradient is reshaped back to
// the input geometry. Recording matters even for pure views: a parameter
// reshaped for broadcasting would otherwise never see its gradient.
type ReshapeOp struct{ op }

// NewReshapeOp creates the tape node for a reshape.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{op{inputs: []*tensor.RawTensor{x}, output: output}}
}

func (o *ReshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, o.inputs[0].Shape())}
}

// TransposeOp records output = transpose(x, axes). The gradient is
// transposed with the inverse permutation.
type TransposeOp struct {
	op
	axes []int
}

// NewTransposeOp creates the tape node for a transpose.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		op:   op{inputs: []*tensor.RawTensor{x}, output: output},
		axes: append([]int(nil), axes...),
	}
}

func (o *TransposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(o.axes))
	for i, a := range o.axes {
		inverse[a] = i
	}
	return []*tensor.RawTensor{backend.Transpose(grad, inverse...)}
}

// ExpandOp records output = expand(x, shape). Expanded positions alias one
// source element, so the gradient sums over them.
type ExpandOp struct{ op }

// NewExpandOp creates the tape node for a broadcast expansion.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{op{inputs: []*tensor.RawTensor{x}, output: output}}
}

func (o *ExpandOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(grad, o.inputs[0].Shape(), backend)}
}

// NewUnsqueezeOp records output = unsqueeze(x, dim); the gradient is
// reshaped back, dropping the inserted axis.
func NewUnsqueezeOp(x, output *tensor.RawTensor) Operation {
	return NewReshapeOp(x, output)
}

// NewSqueezeOp records output = squeeze(x, dim); the gradient is reshaped
// back, restoring the removed axis.
func NewSqueezeOp(x, output *tensor.RawTensor) Operation {
	return NewReshapeOp(x, output)
}

// PadOp records output = pad(x, pads, mode). The backward slices the
// interior window out of the gradient. For reflect and replicate modes the
// border contributions are dropped rather than folded back onto their
// source elements.
type PadOp struct {
	op
	pads []int
}

// NewPadOp creates the tape node for a pad.
func NewPadOp(x, output *tensor.RawTensor, pads []int) *PadOp {
	return &PadOp{
		op:   op{inputs: []*tensor.RawTensor{x}, output: output},
		pads: append([]int(nil), pads...),
	}
}

func (o *PadOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := o.inputs[0].Shape()
	idxs := make([]tensor.Index, len(inShape))
	for d := range inShape {
		idxs[d] = tensor.All()
	}
	nPadded := len(o.pads) / 2
	for i := 0; i < nPadded; i++ {
		d := len(inShape) - 1 - i
		before := o.pads[2*i]
		idxs[d] = tensor.Range(before, before+inShape[d])
	}
	interior, err := grad.Index(idxs...)
	if err != nil {
		panic(fmt.Sprintf("ops: pad backward: %v", err))
	}
	return []*tensor.RawTensor{backend.Reshape(interior, inShape)}
}

// CatOp records output = cat(tensors, dim). The gradient is sliced back
// into per-input segments along dim.
type CatOp struct {
	op
	dim int
}

// NewCatOp creates the tape node for a concatenation.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{
		op:  op{inputs: append([]*tensor.RawTensor(nil), inputs...), output: output},
		dim: dim,
	}
}

func (o *CatOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dim := o.dim
	if dim < 0 {
		dim += len(grad.Shape())
	}
	grads := make([]*tensor.RawTensor, len(o.inputs))
	offset := 0
	for i, in := range o.inputs {
		size := in.Shape()[dim]
		idxs := make([]tensor.Index, len(grad.Shape()))
		for d := range idxs {
			idxs[d] = tensor.All()
		}
		idxs[dim] = tensor.Range(offset, offset+size)
		segment, err := grad.Index(idxs...)
		if err != nil {
			panic(fmt.Sprintf("ops: cat backward: %v", err))
		}
		grads[i] = backend.Reshape(segment, in.Shape())
		offset += size
	}
	return grads
}

// ChunkOp records outputs = chunk(x, n, dim). It is the multi-output dual
// of CatOp: the input gradient is the concatenation of the chunk gradients.
type ChunkOp struct {
	op
	outputs []*tensor.RawTensor
	dim     int
}

// NewChunkOp creates the tape node for a chunk split.
func NewChunkOp(x *tensor.RawTensor, outputs []*tensor.RawTensor, dim int) *ChunkOp {
	return &ChunkOp{
		op:      op{inputs: []*tensor.RawTensor{x}, output: outputs[0]},
		outputs: append([]*tensor.RawTensor(nil), outputs...),
		dim:     dim,
	}
}

// Outputs returns every chunk produced by the forward pass.
func (o *ChunkOp) Outputs() []*tensor.RawTensor {
	return o.outputs
}

// Backward routes through BackwardMulti; the tape never calls it directly
// for multi-output nodes.
func (o *ChunkOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(o.outputs))
	for i := range grads {
		if o.outputs[i] == o.output {
			grads[i] = grad
		} else {
			grads[i] = zerosLike(o.outputs[i])
		}
	}
	return o.BackwardMulti(grads, backend)
}

func (o *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Cat(outputGrads, o.dim)}
}
