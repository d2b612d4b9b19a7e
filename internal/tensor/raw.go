package tensor

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// tensorBuffer is a reference-counted shared allocation. Views created by
// slicing, reshaping or transposing hold the same buffer: mutation through
// one view is visible through all others by design. No locking is applied to
// element access; callers that share tensors across goroutines must supply
// their own synchronization.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // guards deallocation
}

func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{data: make([]byte, size)}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor handle: an n-dimensional strided view
// into a reference-counted native buffer.
//
// Lifecycle: a handle is live until Release is called. Release is idempotent;
// after it, every access fails fast with an invalid-handle panic instead of
// touching freed memory. A runtime finalizer releases leaked handles as a
// safety net, but deterministic Release is the primary discipline.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int // element strides, row-major
	dtype  DataType
	device Device
	offset int // byte offset into the buffer, for views

	released     atomic.Bool
	requiresGrad bool
}

// NewRaw allocates a new RawTensor with the given shape and element type.
// Memory is zero-initialized. Allocation fails when the device has no usable
// backend or when the element count exceeds the platform indexing range.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !device.allocatable() {
		return nil, fmt.Errorf("%w: no backend for device %s", ErrDeviceUnavailable, device)
	}

	numElements := shape.NumElements()
	if numElements > math.MaxInt/dtype.Size() {
		return nil, fmt.Errorf("%w: %d elements of %s exceed addressable range", ErrAllocation, numElements, dtype)
	}

	r := &RawTensor{
		buffer: newTensorBuffer(numElements * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}
	runtime.SetFinalizer(r, (*RawTensor).Release)
	return r, nil
}

// mustValid panics when the handle was released. Every accessor and every
// backend kernel goes through an accessor, so released handles fail fast.
func (r *RawTensor) mustValid() {
	if r.released.Load() {
		panic(fmt.Sprintf("%v: tensor already released", ErrInvalidHandle))
	}
}

// Valid returns ErrInvalidHandle when the handle was released.
func (r *RawTensor) Valid() error {
	if r.released.Load() {
		return ErrInvalidHandle
	}
	return nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	r.mustValid()
	return r.shape
}

// Strides returns the tensor's element strides.
func (r *RawTensor) Strides() []int {
	r.mustValid()
	return r.stride
}

// DType returns the tensor's element type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	r.mustValid()
	return r.shape.NumElements()
}

// ByteSize returns the total memory size of the logical view in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// RequiresGrad reports whether autodiff tracks operations on this tensor.
func (r *RawTensor) RequiresGrad() bool {
	return r.requiresGrad
}

// SetRequiresGrad toggles gradient tracking for this tensor.
func (r *RawTensor) SetRequiresGrad(v bool) {
	r.requiresGrad = v
}

// Data returns the raw byte slice starting at the view's offset.
// Only valid for host-addressable devices.
func (r *RawTensor) Data() []byte {
	r.mustValid()
	if !r.device.HostAddressable() {
		panic(fmt.Sprintf("tensor on %s is not host-addressable", r.device))
	}
	return r.buffer.data[r.offset:]
}

func (r *RawTensor) typedData(want DataType) []byte {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	data := r.Data()
	if len(data) == 0 {
		return nil
	}
	return data
}

// AsFloat32 interprets the data as []float32. Panics on dtype mismatch.
func (r *RawTensor) AsFloat32() []float32 {
	data := r.typedData(Float32)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64. Panics on dtype mismatch.
func (r *RawTensor) AsFloat64() []float64 {
	data := r.typedData(Float64)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat16 interprets the data as a slice of IEEE 754 binary16 values.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	data := r.typedData(Float16)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsBFloat16 interprets the data as a slice of bfloat16 values.
func (r *RawTensor) AsBFloat16() []bfloat16.BF16 {
	data := r.typedData(BFloat16)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*bfloat16.BF16)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt8 interprets the data as []int8. Panics on dtype mismatch.
func (r *RawTensor) AsInt8() []int8 {
	data := r.typedData(Int8)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt16 interprets the data as []int16. Panics on dtype mismatch.
func (r *RawTensor) AsInt16() []int16 {
	data := r.typedData(Int16)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32. Panics on dtype mismatch.
func (r *RawTensor) AsInt32() []int32 {
	data := r.typedData(Int32)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64. Panics on dtype mismatch.
func (r *RawTensor) AsInt64() []int64 {
	data := r.typedData(Int64)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint8 interprets the data as []uint8. Panics on dtype mismatch.
func (r *RawTensor) AsUint8() []uint8 {
	data := r.typedData(Uint8)
	if data == nil {
		return nil
	}
	return data[:r.NumElements()]
}

// AsUint16 interprets the data as []uint16. Panics on dtype mismatch.
func (r *RawTensor) AsUint16() []uint16 {
	data := r.typedData(Uint16)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint32 interprets the data as []uint32. Panics on dtype mismatch.
func (r *RawTensor) AsUint32() []uint32 {
	data := r.typedData(Uint32)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint64 interprets the data as []uint64. Panics on dtype mismatch.
func (r *RawTensor) AsUint64() []uint64 {
	data := r.typedData(Uint64)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsBool interprets the data as []bool. Panics on dtype mismatch.
func (r *RawTensor) AsBool() []bool {
	data := r.typedData(Bool)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsComplex64 interprets the data as []complex64. Panics on dtype mismatch.
func (r *RawTensor) AsComplex64() []complex64 {
	data := r.typedData(Complex64)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsComplex128 interprets the data as []complex128. Panics on dtype mismatch.
func (r *RawTensor) AsComplex128() []complex128 {
	data := r.typedData(Complex128)
	if data == nil {
		return nil
	}
	return unsafe.Slice((*complex128)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone creates a new handle sharing the same buffer (shallow copy with
// reference counting). Mutation through either handle is visible through
// both; this is the view mechanism, not copy-on-write isolation.
func (r *RawTensor) Clone() *RawTensor {
	r.mustValid()
	r.buffer.addRef()
	clone := &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
	runtime.SetFinalizer(clone, (*RawTensor).Release)
	return clone
}

// view creates a new handle over the same buffer with different geometry.
func (r *RawTensor) view(shape Shape, stride []int, byteOffset int) *RawTensor {
	r.mustValid()
	r.buffer.addRef()
	v := &RawTensor{
		buffer: r.buffer,
		shape:  shape.Clone(),
		stride: append([]int(nil), stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: byteOffset,
	}
	runtime.SetFinalizer(v, (*RawTensor).Release)
	return v
}

// NarrowView returns a contiguous view of shape starting elemOffset elements
// into this tensor. The receiver must itself be contiguous; backends use this
// to address batch entries without copying.
func (r *RawTensor) NarrowView(elemOffset int, shape Shape) *RawTensor {
	r.mustValid()
	if !r.IsContiguous() {
		panic("NarrowView requires a contiguous tensor")
	}
	return r.view(shape, shape.ComputeStrides(), r.offset+elemOffset*r.dtype.Size())
}

// StridedView returns a view with custom geometry over the same buffer and
// offset. Zero strides are legal and alias one source element along that
// dimension.
func (r *RawTensor) StridedView(shape Shape, stride []int) *RawTensor {
	return r.view(shape, stride, r.offset)
}

// IsContiguous reports whether elements are laid out row-major without gaps.
func (r *RawTensor) IsContiguous() bool {
	r.mustValid()
	return equalInts(r.stride, r.shape.ComputeStrides())
}

// Release drops this handle's reference to the buffer. The buffer is freed
// when the last handle releases it. Release is idempotent: releasing an
// already-released handle is a no-op and never corrupts other live handles.
func (r *RawTensor) Release() {
	if r.released.Swap(true) {
		return
	}
	runtime.SetFinalizer(r, nil)
	r.buffer.release()
}

// IsUnique reports whether this handle holds the only reference to the
// buffer. When true, backends may reuse the buffer for in-place results.
func (r *RawTensor) IsUnique() bool {
	r.mustValid()
	return r.buffer.isUnique()
}

// ForceNonUnique temporarily raises the reference count so IsUnique reports
// false, preventing in-place reuse. The autodiff backend uses this to keep
// forward inputs intact for the backward pass. The returned func must be
// called (use defer) to restore the count.
func (r *RawTensor) ForceNonUnique() func() {
	r.mustValid()
	r.buffer.addRef()
	return func() { r.buffer.release() }
}

// String returns a short description of the handle.
func (r *RawTensor) String() string {
	if r.released.Load() {
		return "RawTensor(released)"
	}
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
