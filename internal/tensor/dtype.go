// Package tensor provides the core tensor types and operations for the Warp engine.
package tensor

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType is a constraint for supported tensor element types.
//
// The two 16-bit float encodings are represented by their bit-pattern types
// (float16.Float16 and bfloat16.BF16, both ~uint16), so a plain uint16 tensor
// and a float16 tensor share storage layout but not DataType.
type DType interface {
	~float32 | ~float64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~bool | ~complex64 | ~complex128
}

// DataType represents runtime element type information for tensors.
//
// The numeric values are stable: they double as the element type tags in the
// persisted tensor format, so entries must never be reordered.
type DataType uint8

// The closed set of supported element types.
const (
	Int8 DataType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	BFloat16
	Float32
	Float64
	Bool
	Complex64
	Complex128
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16, Float16, BFloat16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating-point type,
// including the 16-bit encodings.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float16, BFloat16, Float32, Float64:
		return true
	}
	return false
}

// IsComplex reports whether the data type is complex.
func (dt DataType) IsComplex() bool {
	return dt == Complex64 || dt == Complex128
}

// IsInteger reports whether the data type is a (signed or unsigned) integer.
func (dt DataType) IsInteger() bool {
	switch dt {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsSigned reports whether the data type can represent negative values.
func (dt DataType) IsSigned() bool {
	switch dt {
	case Int8, Int16, Int32, Int64, Float16, BFloat16, Float32, Float64, Complex64, Complex128:
		return true
	}
	return false
}

// DataTypes lists every supported data type, in tag order.
func DataTypes() []DataType {
	return []DataType{
		Int8, Int16, Int32, Int64,
		Uint8, Uint16, Uint32, Uint64,
		Float16, BFloat16, Float32, Float64,
		Bool, Complex64, Complex128,
	}
}

// ParseDataType resolves a data type from its string name.
func ParseDataType(s string) (DataType, bool) {
	for _, dt := range DataTypes() {
		if dt.String() == s {
			return dt, true
		}
	}
	return 0, false
}

// CanCast reports whether a conversion between two data types is defined.
// Complex values cannot be narrowed to real types, and the 16-bit float
// encodings have no direct complex conversion in either direction.
func CanCast(from, to DataType) bool {
	if from == to {
		return true
	}
	if from.IsComplex() {
		return to.IsComplex()
	}
	if to.IsComplex() {
		return from != Float16 && from != BFloat16
	}
	return true
}

// inferDataType infers DataType from a generic type T.
//
// float16.Float16 and bfloat16.BF16 are matched before uint16: a plain
// uint16 value infers Uint16 even though all three share storage.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case float16.Float16:
		return Float16
	case bfloat16.BF16:
		return BFloat16
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case bool:
		return Bool
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		panic("unsupported type")
	}
}
