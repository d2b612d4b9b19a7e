package serialization

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the readers and writers.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrUnknownDType       = errors.New("unknown data type tag")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrInvalidTensorName  = errors.New("invalid tensor name")
	ErrTensorNotFound     = errors.New("tensor not found")
	ErrNotContiguous      = errors.New("tensor is not contiguous")
	ErrWriterClosed       = errors.New("writer is closed")
	ErrReaderClosed       = errors.New("reader is closed")
)

// ValidationError carries the details of a header validation failure.
type ValidationError struct {
	Kind    string // e.g. "offset_overlap", "out_of_bounds"
	Tensor  string // primary tensor name
	Tensor2 string // second tensor name for overlap failures
	Details string
}

func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Kind, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Kind, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}
