// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/warp-ml/warp/internal/tensor"
)

// DType is the constraint for supported tensor element types.
type DType = tensor.DType

// DataType is the runtime element type tag of a tensor.
type DataType = tensor.DataType

// The closed set of supported element types.
const (
	Int8       DataType = tensor.Int8
	Int16      DataType = tensor.Int16
	Int32      DataType = tensor.Int32
	Int64      DataType = tensor.Int64
	Uint8      DataType = tensor.Uint8
	Uint16     DataType = tensor.Uint16
	Uint32     DataType = tensor.Uint32
	Uint64     DataType = tensor.Uint64
	Float16    DataType = tensor.Float16
	BFloat16   DataType = tensor.BFloat16
	Float32    DataType = tensor.Float32
	Float64    DataType = tensor.Float64
	Bool       DataType = tensor.Bool
	Complex64  DataType = tensor.Complex64
	Complex128 DataType = tensor.Complex128
)

// Device is a tensor placement.
type Device = tensor.Device

// The closed set of device kinds. CUDA, Vulkan and Metal are reserved
// for future backends.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape holds the dimensions of a tensor, outermost first.
type Shape = tensor.Shape

// Scalar is an immutable boxed numeric literal with a data type tag.
type Scalar = tensor.Scalar

// Tensor is the generic type-safe tensor handle.
//
// T is the element type and B the backend implementation. Operations
// dispatch through B, so an autodiff-wrapped backend records them on its
// tape transparently.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Error sentinels wrapped by tensor and backend failures. Branch on them
// with errors.Is.
var (
	ErrDeviceUnavailable = tensor.ErrDeviceUnavailable
	ErrAllocation        = tensor.ErrAllocation
	ErrShape             = tensor.ErrShape
	ErrInvalidHandle     = tensor.ErrInvalidHandle
	ErrUnsupportedCast   = tensor.ErrUnsupportedCast
	ErrGraphFreed        = tensor.ErrGraphFreed
	ErrNonScalarBackward = tensor.ErrNonScalarBackward
	ErrNotInGraph        = tensor.ErrNotInGraph
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor of samples from the standard normal distribution.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand creates a tensor of samples from the uniform distribution on [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// Arange creates a 1D tensor with values from start to end (exclusive).
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, b)
}

// Eye creates an n by n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// FromSlice creates a tensor from a Go slice. The slice length must match
// the shape's element count.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor in a typed handle. The raw tensor's data type
// must match T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates an uninitialized raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewScalar boxes a literal value of any supported element type.
func NewScalar[T DType](v T) Scalar {
	return tensor.NewScalar(v)
}

// Cat concatenates tensors along a dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// Where selects elements from x where cond is true and from y elsewhere.
func Where[T DType, B Backend](cond *Tensor[bool, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	return tensor.Where(cond, x, y)
}

// BroadcastShapes computes the NumPy broadcast result of two shapes. The
// bool reports whether broadcasting was required.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// DataTypes returns all supported element types.
func DataTypes() []DataType {
	return tensor.DataTypes()
}

// Devices returns all device kinds, including reserved ones.
func Devices() []Device {
	return tensor.Devices()
}

// ParseDataType resolves a dtype from its canonical lowercase name.
func ParseDataType(s string) (DataType, bool) {
	return tensor.ParseDataType(s)
}

// CanCast reports whether elements of dtype from can be cast to dtype to.
func CanCast(from, to DataType) bool {
	return tensor.CanCast(from, to)
}
