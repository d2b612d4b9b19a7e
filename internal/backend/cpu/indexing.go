package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Gather picks elements along dim: out[i..., j, k...] = x[i..., index[i..., j, k...], k...].
// index must be Int32 or Int64 and match x's rank; negative indices wrap.
func (c *Backend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	idxShape := index.Shape()
	if len(idxShape) != len(shape) {
		panic(fmt.Sprintf("cpu: Gather index rank %d does not match tensor rank %d", len(idxShape), len(shape)))
	}
	if index.DType() != tensor.Int32 && index.DType() != tensor.Int64 {
		panic(fmt.Sprintf("cpu: Gather index must be int32 or int64, got %s", index.DType()))
	}

	x, index = contiguous(x), contiguous(index)
	out := mustRaw(idxShape, x.DType(), x.Device())

	xStrides := shape.ComputeStrides()
	elem := x.DType().Size()
	src, dst := x.Data(), out.Data()

	total := idxShape.NumElements()
	coords := make([]int, len(idxShape))
	for flat := 0; flat < total; flat++ {
		pick := indexAt(index, flat)
		if pick < 0 {
			pick += shape[dim]
		}
		if pick < 0 || pick >= shape[dim] {
			panic(fmt.Sprintf("cpu: Gather index %d out of range for dimension %d of size %d",
				indexAt(index, flat), dim, shape[dim]))
		}

		off := 0
		for d := range coords {
			if d == dim {
				off += pick * xStrides[d]
			} else {
				off += coords[d] * xStrides[d]
			}
		}
		copy(dst[flat*elem:(flat+1)*elem], src[off*elem:off*elem+elem])

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < idxShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return out
}

func indexAt(index *tensor.RawTensor, i int) int {
	if index.DType() == tensor.Int32 {
		return int(index.AsInt32()[i])
	}
	return int(index.AsInt64()[i])
}

// Where selects x where condition holds and y elsewhere, broadcasting all
// three operands to a common shape.
func (c *Backend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if condition.DType() != tensor.Bool {
		panic(fmt.Sprintf("cpu: Where condition must be bool, got %s", condition.DType()))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("cpu: Where branch dtype mismatch: %s vs %s", x.DType(), y.DType()))
	}
	condition, x, y = contiguous(condition), contiguous(x), contiguous(y)

	branchShape, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	outShape, _, err := tensor.BroadcastShapes(condition.Shape(), branchShape)
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}

	out := mustRaw(outShape, x.DType(), x.Device())
	condStr := broadcastStrides(condition.Shape(), outShape)
	xStr := broadcastStrides(x.Shape(), outShape)
	yStr := broadcastStrides(y.Shape(), outShape)
	cond := condition.AsBool()
	elem := x.DType().Size()
	xData, yData, dst := x.Data(), y.Data(), out.Data()

	total := outShape.NumElements()
	coords := make([]int, len(outShape))
	for flat := 0; flat < total; flat++ {
		ci, xi, yi := 0, 0, 0
		for d := range coords {
			ci += coords[d] * condStr[d]
			xi += coords[d] * xStr[d]
			yi += coords[d] * yStr[d]
		}
		if cond[ci] {
			copy(dst[flat*elem:(flat+1)*elem], xData[xi*elem:xi*elem+elem])
		} else {
			copy(dst[flat*elem:(flat+1)*elem], yData[yi*elem:yi*elem+elem])
		}

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < outShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return out
}

// broadcastStrides maps a source shape's strides into the coordinate space
// of a broadcast target, zeroing broadcast dimensions.
func broadcastStrides(src, target tensor.Shape) []int {
	strides := src.ComputeStrides()
	out := make([]int, len(target))
	lead := len(target) - len(src)
	for i := range target {
		if si := i - lead; si >= 0 && src[si] != 1 {
			out[i] = strides[si]
		}
	}
	return out
}

// Embedding looks up rows of a [V, D] weight table by integer id:
// out[..., :] = weight[indices[...], :].
func (c *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	ws := weight.Shape()
	if len(ws) != 2 {
		panic(fmt.Sprintf("cpu: Embedding weight must be [V, D], got %v", ws))
	}
	if indices.DType() != tensor.Int32 && indices.DType() != tensor.Int64 {
		panic(fmt.Sprintf("cpu: Embedding indices must be int32 or int64, got %s", indices.DType()))
	}
	weight, indices = contiguous(weight), contiguous(indices)

	vocab, dim := ws[0], ws[1]
	outShape := append(indices.Shape().Clone(), dim)
	out := mustRaw(outShape, weight.DType(), weight.Device())

	elem := weight.DType().Size()
	rowBytes := dim * elem
	src, dst := weight.Data(), out.Data()

	for i := 0; i < indices.NumElements(); i++ {
		id := indexAt(indices, i)
		if id < 0 || id >= vocab {
			panic(fmt.Sprintf("cpu: Embedding id %d out of range for vocabulary of size %d", id, vocab))
		}
		copy(dst[i*rowBytes:(i+1)*rowBytes], src[id*rowBytes:(id+1)*rowBytes])
	}
	return out
}
