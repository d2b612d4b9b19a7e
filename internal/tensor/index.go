package tensor

import "fmt"

// IndexKind tags the variant of a per-dimension index descriptor.
type IndexKind int

// Index descriptor kinds.
const (
	IndexAll IndexKind = iota
	IndexSingle
	IndexRange
	IndexNewAxis
	IndexEllipsis
	IndexMask
	IndexPick
)

// Index is a tagged per-dimension index descriptor. Each kind carries only
// the fields it needs; use the constructors below.
type Index struct {
	kind  IndexKind
	at    int
	start int
	stop  int
	step  int
	mask  *RawTensor
	pick  *RawTensor
}

// At selects a single offset along one dimension, removing it.
func At(i int) Index {
	return Index{kind: IndexSingle, at: i}
}

// Range selects the half-open range [start, stop) with step 1.
func Range(start, stop int) Index {
	return Index{kind: IndexRange, start: start, stop: stop, step: 1}
}

// RangeStep selects the half-open range [start, stop) with a positive step.
func RangeStep(start, stop, step int) Index {
	return Index{kind: IndexRange, start: start, stop: stop, step: step}
}

// All keeps a dimension untouched.
func All() Index {
	return Index{kind: IndexAll}
}

// NewAxis inserts a dimension of size 1.
func NewAxis() Index {
	return Index{kind: IndexNewAxis}
}

// Ellipsis expands to as many All descriptors as needed to cover the
// remaining dimensions. At most one ellipsis is allowed.
func Ellipsis() Index {
	return Index{kind: IndexEllipsis}
}

// Mask selects positions along one dimension where a 1-D bool tensor is true.
func Mask(m *RawTensor) Index {
	return Index{kind: IndexMask, mask: m}
}

// Pick gathers positions along one dimension from a 1-D integer tensor.
func Pick(idx *RawTensor) Index {
	return Index{kind: IndexPick, pick: idx}
}

// consumesDim reports whether the descriptor uses up one source dimension.
func (ix Index) consumesDim() bool {
	switch ix.kind {
	case IndexNewAxis, IndexEllipsis:
		return false
	default:
		return true
	}
}

type gatherStep struct {
	dim     int
	indices []int
}

// Index applies descriptors dimension by dimension. View-only descriptors
// produce a handle sharing the buffer; mask/pick descriptors gather into a
// fresh contiguous buffer.
func (r *RawTensor) Index(idxs ...Index) (*RawTensor, error) {
	r.mustValid()
	ndim := len(r.shape)

	consuming, ellipses := 0, 0
	for _, ix := range idxs {
		if ix.consumesDim() {
			consuming++
		}
		if ix.kind == IndexEllipsis {
			ellipses++
		}
	}
	if ellipses > 1 {
		return nil, fmt.Errorf("%w: at most one ellipsis allowed", ErrShape)
	}
	if consuming > ndim {
		return nil, fmt.Errorf("%w: %d index descriptors for tensor of dimension %d",
			ErrShape, consuming, ndim)
	}

	// Expand the ellipsis (or missing trailing descriptors) into All.
	expanded := make([]Index, 0, len(idxs)+ndim-consuming)
	sawEllipsis := false
	for _, ix := range idxs {
		if ix.kind == IndexEllipsis {
			sawEllipsis = true
			for i := 0; i < ndim-consuming; i++ {
				expanded = append(expanded, All())
			}
			continue
		}
		expanded = append(expanded, ix)
	}
	if !sawEllipsis {
		for i := 0; i < ndim-consuming; i++ {
			expanded = append(expanded, All())
		}
	}

	outShape := make(Shape, 0, len(expanded))
	outStride := make([]int, 0, len(expanded))
	byteOffset := r.offset
	var gathers []gatherStep

	srcDim := 0
	for _, ix := range expanded {
		switch ix.kind {
		case IndexNewAxis:
			outShape = append(outShape, 1)
			outStride = append(outStride, 0)

		case IndexAll:
			outShape = append(outShape, r.shape[srcDim])
			outStride = append(outStride, r.stride[srcDim])
			srcDim++

		case IndexSingle:
			size := r.shape[srcDim]
			at := ix.at
			if at < 0 {
				at += size
			}
			if at < 0 || at >= size {
				return nil, fmt.Errorf("%w: index %d out of range for dimension %d (size %d)",
					ErrShape, ix.at, srcDim, size)
			}
			byteOffset += at * r.stride[srcDim] * r.dtype.Size()
			srcDim++

		case IndexRange:
			size := r.shape[srcDim]
			if ix.step <= 0 {
				return nil, fmt.Errorf("%w: range step must be positive, got %d", ErrShape, ix.step)
			}
			start, stop := ix.start, ix.stop
			if start < 0 {
				start += size
			}
			if stop < 0 {
				stop += size
			}
			start = min(max(start, 0), size)
			stop = min(max(stop, 0), size)
			n := 0
			if stop > start {
				n = (stop - start + ix.step - 1) / ix.step
			}
			byteOffset += start * r.stride[srcDim] * r.dtype.Size()
			outShape = append(outShape, n)
			outStride = append(outStride, r.stride[srcDim]*ix.step)
			srcDim++

		case IndexMask:
			if ix.mask.DType() != Bool || len(ix.mask.Shape()) != 1 {
				return nil, fmt.Errorf("%w: mask index must be a 1-D bool tensor", ErrShape)
			}
			if ix.mask.Shape()[0] != r.shape[srcDim] {
				return nil, fmt.Errorf("%w: mask length %d does not match dimension %d (size %d)",
					ErrShape, ix.mask.Shape()[0], srcDim, r.shape[srcDim])
			}
			var picked []int
			for i, v := range ix.mask.AsBool() {
				if v {
					picked = append(picked, i)
				}
			}
			gathers = append(gathers, gatherStep{dim: len(outShape), indices: picked})
			outShape = append(outShape, r.shape[srcDim])
			outStride = append(outStride, r.stride[srcDim])
			srcDim++

		case IndexPick:
			picked, err := pickIndices(ix.pick, r.shape[srcDim], srcDim)
			if err != nil {
				return nil, err
			}
			gathers = append(gathers, gatherStep{dim: len(outShape), indices: picked})
			outShape = append(outShape, r.shape[srcDim])
			outStride = append(outStride, r.stride[srcDim])
			srcDim++
		}
	}

	result := r.view(outShape, outStride, byteOffset)
	for _, g := range gathers {
		gathered, err := gatherDim(result, g.dim, g.indices)
		result.Release()
		if err != nil {
			return nil, err
		}
		result = gathered
	}
	return result, nil
}

func pickIndices(pick *RawTensor, dimSize, dim int) ([]int, error) {
	if len(pick.Shape()) != 1 {
		return nil, fmt.Errorf("%w: tensor index must be 1-D", ErrShape)
	}
	n := pick.Shape()[0]
	out := make([]int, n)
	switch pick.DType() {
	case Int32:
		for i, v := range pick.AsInt32() {
			out[i] = int(v)
		}
	case Int64:
		for i, v := range pick.AsInt64() {
			out[i] = int(v)
		}
	default:
		return nil, fmt.Errorf("%w: tensor index must be int32 or int64, got %s", ErrShape, pick.DType())
	}
	for i, v := range out {
		if v < 0 {
			v += dimSize
			out[i] = v
		}
		if v < 0 || v >= dimSize {
			return nil, fmt.Errorf("%w: gather index %d out of range for dimension %d (size %d)",
				ErrShape, v, dim, dimSize)
		}
	}
	return out, nil
}

// gatherDim copies the selected positions along dim into a fresh
// contiguous tensor, walking the (possibly strided) source geometry.
func gatherDim(src *RawTensor, dim int, indices []int) (*RawTensor, error) {
	outShape := src.shape.Clone()
	outShape[dim] = len(indices)

	out, err := NewRaw(outShape, src.dtype, src.device)
	if err != nil {
		return nil, err
	}
	if outShape.NumElements() == 0 {
		return out, nil
	}

	elem := src.dtype.Size()
	srcData := src.buffer.data
	outData := out.buffer.data

	coords := make([]int, len(outShape))
	total := outShape.NumElements()
	for flat := 0; flat < total; flat++ {
		srcOff := src.offset
		for d, c := range coords {
			pos := c
			if d == dim {
				pos = indices[c]
			}
			srcOff += pos * src.stride[d] * elem
		}
		copy(outData[flat*elem:(flat+1)*elem], srcData[srcOff:srcOff+elem])

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < outShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return out, nil
}
