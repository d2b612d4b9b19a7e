package ops

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// GatherOp records output = gather(x, dim, index). The backward scatters
// each output gradient back to the element it was read from; duplicate
// indices accumulate.
type GatherOp struct {
	op
	dim   int
	index *tensor.RawTensor
}

// NewGatherOp creates the tape node for a gather. The index tensor is not
// differentiated.
func NewGatherOp(x, index, output *tensor.RawTensor, dim int) *GatherOp {
	return &GatherOp{
		op:    op{inputs: []*tensor.RawTensor{x}, output: output},
		dim:   dim,
		index: index,
	}
}

func (o *GatherOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := o.inputs[0]
	shape := x.Shape()
	dim := o.dim
	if dim < 0 {
		dim += len(shape)
	}

	result := zerosLike(x)
	strides := shape.ComputeStrides()
	idxShape := o.index.Shape()

	coords := make([]int, len(idxShape))
	total := idxShape.NumElements()
	for flat := 0; flat < total; flat++ {
		pick := gatherIndexAt(o.index, flat)
		if pick < 0 {
			pick += shape[dim]
		}
		off := 0
		for d := range coords {
			if d == dim {
				off += pick * strides[d]
			} else {
				off += coords[d] * strides[d]
			}
		}
		scatterAdd(result, off, grad, flat)

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < idxShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return []*tensor.RawTensor{result}
}

// EmbeddingOp records output = embedding(weight, indices): a row gather
// from the [V, D] table. The backward scatter-adds the gradient rows onto
// the looked-up table rows.
type EmbeddingOp struct {
	op
	indices *tensor.RawTensor
}

// NewEmbeddingOp creates the tape node for an embedding lookup.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		op:      op{inputs: []*tensor.RawTensor{weight}, output: output},
		indices: indices,
	}
}

func (o *EmbeddingOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	weight := o.inputs[0]
	dim := weight.Shape()[1]
	result := zerosLike(weight)

	for i := 0; i < o.indices.NumElements(); i++ {
		id := gatherIndexAt(o.indices, i)
		for j := 0; j < dim; j++ {
			scatterAdd(result, id*dim+j, grad, i*dim+j)
		}
	}
	return []*tensor.RawTensor{result}
}

func gatherIndexAt(index *tensor.RawTensor, i int) int {
	if index.DType() == tensor.Int32 {
		return int(index.AsInt32()[i])
	}
	return int(index.AsInt64()[i])
}

// scatterAdd accumulates grad[src] into dst[off] in place.
func scatterAdd(dst *tensor.RawTensor, off int, grad *tensor.RawTensor, src int) {
	switch dst.DType() {
	case tensor.Float32:
		dst.AsFloat32()[off] += grad.AsFloat32()[src]
	case tensor.Float64:
		dst.AsFloat64()[off] += grad.AsFloat64()[src]
	default:
		panic(fmt.Sprintf("ops: scatter backward does not support %s", dst.DType()))
	}
}
