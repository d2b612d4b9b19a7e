package tensor

import (
	"fmt"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Scalar is an immutable boxed numeric literal with a data type tag.
//
// Scalars exist to pass single constants into backend operations without
// allocating a one-element tensor. They have no lifecycle beyond the call
// that consumes them.
type Scalar struct {
	dtype DataType
	f     float64
	i     int64
	u     uint64
	b     bool
	c     complex128
}

// NewScalar boxes a literal value of any supported element type.
func NewScalar[T DType](v T) Scalar {
	s := Scalar{dtype: inferDataType(v)}
	switch val := any(v).(type) {
	case float32:
		s.f = float64(val)
	case float64:
		s.f = val
	case float16.Float16:
		s.f = float64(val.Float32())
	case bfloat16.BF16:
		s.f = float64(bfloat16.ToFloat32(val))
	case int8:
		s.i = int64(val)
	case int16:
		s.i = int64(val)
	case int32:
		s.i = int64(val)
	case int64:
		s.i = val
	case uint8:
		s.u = uint64(val)
	case uint16:
		s.u = uint64(val)
	case uint32:
		s.u = uint64(val)
	case uint64:
		s.u = val
	case bool:
		s.b = val
	case complex64:
		s.c = complex128(val)
	case complex128:
		s.c = val
	}
	return s
}

// DType returns the data type of the boxed value.
func (s Scalar) DType() DataType {
	return s.dtype
}

// Float64 returns the value as float64. Integer payloads are converted;
// complex and bool payloads panic.
func (s Scalar) Float64() float64 {
	switch {
	case s.dtype.IsFloat():
		return s.f
	case s.dtype.IsInteger() && s.dtype.IsSigned():
		return float64(s.i)
	case s.dtype.IsInteger():
		return float64(s.u)
	default:
		panic(fmt.Sprintf("scalar: cannot read %s as float64", s.dtype))
	}
}

// Int64 returns the value as int64, truncating float payloads.
func (s Scalar) Int64() int64 {
	switch {
	case s.dtype.IsInteger() && s.dtype.IsSigned():
		return s.i
	case s.dtype.IsInteger():
		return int64(s.u)
	case s.dtype.IsFloat():
		return int64(s.f)
	default:
		panic(fmt.Sprintf("scalar: cannot read %s as int64", s.dtype))
	}
}

// Uint64 returns the value as uint64, truncating float payloads.
func (s Scalar) Uint64() uint64 {
	switch {
	case s.dtype.IsInteger() && !s.dtype.IsSigned():
		return s.u
	case s.dtype.IsInteger():
		return uint64(s.i)
	case s.dtype.IsFloat():
		return uint64(s.f)
	default:
		panic(fmt.Sprintf("scalar: cannot read %s as uint64", s.dtype))
	}
}

// Bool returns the boxed bool. Panics for non-bool payloads.
func (s Scalar) Bool() bool {
	if s.dtype != Bool {
		panic(fmt.Sprintf("scalar: cannot read %s as bool", s.dtype))
	}
	return s.b
}

// Complex128 returns the value as complex128. Real payloads are widened.
func (s Scalar) Complex128() complex128 {
	switch {
	case s.dtype.IsComplex():
		return s.c
	case s.dtype == Bool:
		panic("scalar: cannot read bool as complex128")
	default:
		return complex(s.Float64(), 0)
	}
}

// String formats the scalar with its data type.
func (s Scalar) String() string {
	switch {
	case s.dtype.IsComplex():
		return fmt.Sprintf("%v(%s)", s.c, s.dtype)
	case s.dtype == Bool:
		return fmt.Sprintf("%v(%s)", s.b, s.dtype)
	case s.dtype.IsFloat():
		return fmt.Sprintf("%v(%s)", s.f, s.dtype)
	case s.dtype.IsSigned():
		return fmt.Sprintf("%v(%s)", s.i, s.dtype)
	default:
		return fmt.Sprintf("%v(%s)", s.u, s.dtype)
	}
}
