package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/warp-ml/warp/internal/tensor"
)

// ValidationLevel controls how strictly a header is checked before any
// tensor data is trusted.
type ValidationLevel int

const (
	// ValidationNone skips structural checks entirely.
	ValidationNone ValidationLevel = iota
	// ValidationBasic checks names, dtypes, offsets and bounds.
	ValidationBasic
	// ValidationStrict additionally rejects overlapping tensors and
	// size/shape disagreements.
	ValidationStrict
)

const maxTensorNameLen = 1024

// ValidateHeader checks the tensor table of a parsed header against the
// size of the data section.
func ValidateHeader(header *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	for i := range header.Tensors {
		meta := &header.Tensors[i]
		if err := validateMeta(meta, dataSize); err != nil {
			return err
		}
	}

	if level < ValidationStrict {
		return nil
	}

	// Sort by offset to find overlaps between neighbors.
	order := make([]*TensorMeta, len(header.Tensors))
	for i := range header.Tensors {
		order[i] = &header.Tensors[i]
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Offset < order[j].Offset })
	for i := 1; i < len(order); i++ {
		prev, cur := order[i-1], order[i]
		if prev.Offset+prev.Size > cur.Offset {
			return &ValidationError{
				Kind:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: cur.Name,
				Details: fmt.Sprintf("[%d, %d) overlaps [%d, %d): %v",
					prev.Offset, prev.Offset+prev.Size, cur.Offset, cur.Offset+cur.Size, ErrOffsetOverlap),
			}
		}
	}
	return nil
}

func validateMeta(meta *TensorMeta, dataSize int64) error {
	if meta.Name == "" || len(meta.Name) > maxTensorNameLen || strings.ContainsRune(meta.Name, 0) {
		return &ValidationError{
			Kind:    "invalid_name",
			Tensor:  meta.Name,
			Details: ErrInvalidTensorName.Error(),
		}
	}
	dtype, ok := parseDType(meta.DType)
	if !ok {
		return &ValidationError{
			Kind:    "unknown_dtype",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("%v: %q", ErrUnknownDType, meta.DType),
		}
	}
	if meta.Offset < 0 || meta.Size < 0 {
		return &ValidationError{
			Kind:    "negative_offset",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("%v: offset=%d size=%d", ErrNegativeOffset, meta.Offset, meta.Size),
		}
	}
	if meta.Offset+meta.Size > dataSize {
		return &ValidationError{
			Kind:    "out_of_bounds",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("%v: [%d, %d) in section of %d bytes", ErrOutOfBounds, meta.Offset, meta.Offset+meta.Size, dataSize),
		}
	}

	want := int64(dtype.Size())
	for _, d := range meta.Shape {
		if d < 0 {
			return &ValidationError{
				Kind:    "invalid_shape",
				Tensor:  meta.Name,
				Details: fmt.Sprintf("negative dimension in %v", meta.Shape),
			}
		}
		want *= int64(d)
	}
	if want != meta.Size {
		return &ValidationError{
			Kind:    "size_mismatch",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("shape %v with dtype %s needs %d bytes, header says %d", meta.Shape, meta.DType, want, meta.Size),
		}
	}
	return nil
}

// shapeOf converts the JSON shape to a tensor.Shape.
func shapeOf(meta *TensorMeta) tensor.Shape {
	return tensor.Shape(append([]int(nil), meta.Shape...))
}
