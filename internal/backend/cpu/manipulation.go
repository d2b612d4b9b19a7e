package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Reshape reinterprets x with a new shape of equal element count. A view is
// returned when x is contiguous; strided views are compacted first.
func (c *Backend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("cpu: Reshape: %v", err))
	}
	if x.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cpu: Reshape cannot view %v (%d elements) as %v (%d elements)",
			x.Shape(), x.NumElements(), newShape, newShape.NumElements()))
	}
	return contiguous(x).NarrowView(0, newShape)
}

// Transpose permutes dimensions. With no axes it reverses them; otherwise
// axes must be a permutation of [0, ndim). The result is a strided view.
func (c *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("cpu: Transpose got %d axes for tensor of dimension %d", len(axes), nd))
	}
	seen := make([]bool, nd)
	for _, a := range axes {
		if a < 0 || a >= nd || seen[a] {
			panic(fmt.Sprintf("cpu: Transpose axes %v are not a permutation of [0, %d)", axes, nd))
		}
		seen[a] = true
	}

	strides := x.Strides()
	newShape := make(tensor.Shape, nd)
	newStrides := make([]int, nd)
	for i, a := range axes {
		newShape[i] = shape[a]
		newStrides[i] = strides[a]
	}
	return x.StridedView(newShape, newStrides)
}

// Expand broadcasts size-1 dimensions up to the target shape without
// copying, by giving them zero stride.
func (c *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	src := x.Shape()
	if len(shape) < len(src) {
		panic(fmt.Sprintf("cpu: Expand target %v has lower rank than %v", shape, src))
	}
	strides := x.Strides()
	newStrides := make([]int, len(shape))
	lead := len(shape) - len(src)
	for i := range shape {
		si := i - lead
		switch {
		case si < 0:
			newStrides[i] = 0
		case src[si] == shape[i]:
			newStrides[i] = strides[si]
		case src[si] == 1:
			newStrides[i] = 0
		default:
			panic(fmt.Sprintf("cpu: Expand cannot broadcast %v to %v", src, shape))
		}
	}
	return x.StridedView(shape, newStrides)
}

// Unsqueeze inserts a size-1 dimension at dim.
func (c *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("cpu: Unsqueeze dim %d out of range for tensor of dimension %d", dim, len(shape)))
	}
	strides := x.Strides()
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newStrides := make([]int, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newStrides = append(newStrides, strides[:dim]...)
	newShape = append(newShape, 1)
	newStrides = append(newStrides, 0)
	newShape = append(newShape, shape[dim:]...)
	newStrides = append(newStrides, strides[dim:]...)
	return x.StridedView(newShape, newStrides)
}

// Squeeze removes the size-1 dimension at dim.
func (c *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("cpu: Squeeze dim %d has size %d, not 1", dim, shape[dim]))
	}
	strides := x.Strides()
	newShape := make(tensor.Shape, 0, len(shape)-1)
	newStrides := make([]int, 0, len(shape)-1)
	for i := range shape {
		if i == dim {
			continue
		}
		newShape = append(newShape, shape[i])
		newStrides = append(newStrides, strides[i])
	}
	return x.StridedView(newShape, newStrides)
}

// Cat concatenates tensors along dim. All inputs must share dtype and every
// dimension except dim.
func (c *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cpu: Cat of zero tensors")
	}
	first := tensors[0]
	shape := first.Shape()
	dim = normalizeDim(dim, len(shape))

	total := 0
	for _, t := range tensors {
		ts := t.Shape()
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cpu: Cat dtype mismatch: %s vs %s", first.DType(), t.DType()))
		}
		if len(ts) != len(shape) {
			panic(fmt.Sprintf("cpu: Cat rank mismatch: %v vs %v", shape, ts))
		}
		for i := range ts {
			if i != dim && ts[i] != shape[i] {
				panic(fmt.Sprintf("cpu: Cat shape mismatch on dim %d: %v vs %v", i, shape, ts))
			}
		}
		total += ts[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = total
	out := mustRaw(outShape, first.DType(), first.Device())

	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}

	elem := first.DType().Size()
	dst := out.Data()
	rowBytes := total * inner * elem

	offset := 0
	for _, t := range tensors {
		t = contiguous(t)
		src := t.Data()
		span := t.Shape()[dim] * inner * elem
		for o := 0; o < outer; o++ {
			copy(dst[o*rowBytes+offset:o*rowBytes+offset+span], src[o*span:(o+1)*span])
		}
		offset += span
	}
	return out
}

// Chunk splits x into n pieces along dim. dim must divide evenly.
func (c *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if n <= 0 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("cpu: Chunk cannot split dimension of size %d into %d equal pieces", shape[dim], n))
	}
	x = contiguous(x)

	pieceShape := shape.Clone()
	pieceShape[dim] = shape[dim] / n

	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}

	elem := x.DType().Size()
	src := x.Data()
	span := pieceShape[dim] * inner * elem
	rowBytes := shape[dim] * inner * elem

	out := make([]*tensor.RawTensor, n)
	for p := 0; p < n; p++ {
		piece := mustRaw(pieceShape, x.DType(), x.Device())
		dst := piece.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*span:(o+1)*span], src[o*rowBytes+p*span:o*rowBytes+(p+1)*span])
		}
		out[p] = piece
	}
	return out
}
