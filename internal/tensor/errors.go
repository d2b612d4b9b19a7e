package tensor

import "errors"

// Error taxonomy for the tensor layer. Backends and ops wrap these with
// fmt.Errorf("...: %w", ...) so callers can branch with errors.Is.
var (
	// ErrDeviceUnavailable is returned when allocation is requested on a
	// device with no usable backend (reserved enum values, or an
	// accelerator that failed to initialize).
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrAllocation is returned when a buffer cannot be allocated, e.g.
	// the requested element count overflows the platform indexing type.
	ErrAllocation = errors.New("allocation failed")

	// ErrShape is returned for rank/dimension/broadcast violations.
	ErrShape = errors.New("shape mismatch")

	// ErrInvalidHandle is returned when operating on a released tensor.
	ErrInvalidHandle = errors.New("invalid tensor handle")

	// ErrUnsupportedCast is returned for element type conversions outside
	// the supported matrix (complex to real, complex to 16-bit floats).
	ErrUnsupportedCast = errors.New("unsupported cast")

	// ErrGraphFreed is returned when backward is attempted through a graph
	// whose intermediate state was already released.
	ErrGraphFreed = errors.New("graph already freed")

	// ErrNonScalarBackward is returned when backward is called on a
	// non-scalar tensor without an explicit seed gradient.
	ErrNonScalarBackward = errors.New("grad can be implicitly created only for scalar outputs")

	// ErrNotInGraph is returned when backward is called on a tensor that
	// no recorded operation produced.
	ErrNotInGraph = errors.New("tensor is not an output of the recorded graph")
)
