package tensor

import (
	"fmt"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Tensor is a generic tensor with element type T and backend B.
// It is a thin typed facade over RawTensor; the raw handle owns the memory.
type Tensor[T DType, B Backend] struct {
	raw          *RawTensor
	backend      B
	grad         *Tensor[T, B]
	requiresGrad bool
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d",
			ErrShape, shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's element type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor handle.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Release disposes the underlying handle. Idempotent; any later access to
// the tensor fails fast with an invalid-handle panic.
func (t *Tensor[T, B]) Release() {
	t.raw.Release()
}

// Grad returns the accumulated gradient, or nil when no gradient has been
// produced. A nil gradient ("ungenerated") is distinct from a zero-valued
// one: parameters skipped by a conditional forward path keep nil grads.
func (t *Tensor[T, B]) Grad() *Tensor[T, B] {
	return t.grad
}

// SetGrad replaces the accumulated gradient.
func (t *Tensor[T, B]) SetGrad(grad *Tensor[T, B]) {
	t.grad = grad
}

// AccumulateGrad adds g into the accumulated gradient. Repeated backward
// passes without ZeroGrad keep summing, which is what gradient accumulation
// across mini-batches relies on.
func (t *Tensor[T, B]) AccumulateGrad(g *RawTensor) {
	if t.grad == nil {
		t.grad = New[T, B](g, t.backend)
		return
	}
	t.grad = New[T, B](t.backend.Add(t.grad.raw, g), t.backend)
}

// ZeroGrad resets the gradient to the ungenerated state. The requires-grad
// flag is untouched.
func (t *Tensor[T, B]) ZeroGrad() {
	t.grad = nil
}

// Detach returns a tensor sharing the same data with gradient tracking
// stripped. Operations on the detached tensor never reach the tape.
func (t *Tensor[T, B]) Detach() *Tensor[T, B] {
	raw := t.raw.Clone()
	raw.SetRequiresGrad(false)
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}

// Data returns a typed slice view of the tensor's data (zero-copy).
// Only valid for host-addressable tensors; modifications write through.
func (t *Tensor[T, B]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	case float16.Float16:
		return any(t.raw.AsFloat16()).([]T)
	case bfloat16.BF16:
		return any(t.raw.AsBFloat16()).([]T)
	case int8:
		return any(t.raw.AsInt8()).([]T)
	case int16:
		return any(t.raw.AsInt16()).([]T)
	case int32:
		return any(t.raw.AsInt32()).([]T)
	case int64:
		return any(t.raw.AsInt64()).([]T)
	case uint8:
		return any(t.raw.AsUint8()).([]T)
	case uint16:
		return any(t.raw.AsUint16()).([]T)
	case uint32:
		return any(t.raw.AsUint32()).([]T)
	case uint64:
		return any(t.raw.AsUint64()).([]T)
	case bool:
		return any(t.raw.AsBool()).([]T)
	case complex64:
		return any(t.raw.AsComplex64()).([]T)
	case complex128:
		return any(t.raw.AsComplex128()).([]T)
	default:
		panic("unsupported type")
	}
}

// Item returns the value of a scalar (0-D) tensor.
func (t *Tensor[T, B]) Item() T {
	if !t.Shape().IsScalar() {
		panic(fmt.Sprintf("Item() only works for scalar tensors, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatOffset(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatOffset(indices)] = value
}

func (t *Tensor[T, B]) flatOffset(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}

	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Clone creates a new handle over the same buffer. Gradient state is not
// carried over.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// RequireGrad marks this tensor as a gradient leaf. Subsequent operations
// involving it are tracked when the backend records a tape.
// Returns the tensor for chaining.
func (t *Tensor[T, B]) RequireGrad() *Tensor[T, B] {
	t.requiresGrad = true
	t.raw.SetRequiresGrad(true)
	return t
}

// RequiresGrad reports whether this tensor participates in autodiff.
func (t *Tensor[T, B]) RequiresGrad() bool {
	return t.requiresGrad
}

// Index applies a sequence of per-dimension index descriptors and returns
// the resulting tensor. Pure view descriptors (single, range, all, new axis,
// ellipsis) share the underlying buffer; mask and tensor descriptors gather
// into a fresh buffer.
func (t *Tensor[T, B]) Index(idxs ...Index) (*Tensor[T, B], error) {
	raw, err := t.raw.Index(idxs...)
	if err != nil {
		return nil, err
	}
	return New[T, B](raw, t.backend), nil
}
