package tensor

import (
	"fmt"
	"math/rand/v2"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// oneValue returns the unit value of T (true for bool, 1+0i for complex).
func oneValue[T DType]() T {
	var v T
	switch p := any(&v).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *float16.Float16:
		*p = float16.Fromfloat32(1)
	case *bfloat16.BF16:
		*p = bfloat16.FromFloat32(1)
	case *int8:
		*p = 1
	case *int16:
		*p = 1
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *uint16:
		*p = 1
	case *uint32:
		*p = 1
	case *uint64:
		*p = 1
	case *bool:
		*p = true
	case *complex64:
		*p = 1
	case *complex128:
		*p = 1
	default:
		panic("unsupported type")
	}
	return v
}

func mustNew[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return New[T, B](raw, b)
}

// Zeros creates a tensor filled with the zero value of T.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	// Fresh allocations are already zeroed.
	return mustNew[T, B](shape, b)
}

// Ones creates a tensor filled with the unit value of T.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full(shape, oneValue[T](), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := mustNew[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with samples from the standard normal
// distribution N(0, 1). Supported for the four float element types.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := mustNew[T, B](shape, b)
	fillRandom(t, func() float64 { return rand.NormFloat64() })
	return t
}

// Rand creates a float tensor with samples from the uniform distribution
// U(0, 1). Supported for the four float element types.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := mustNew[T, B](shape, b)
	fillRandom(t, rand.Float64)
	return t
}

func fillRandom[T DType, B Backend](t *Tensor[T, B], sample func() float64) {
	switch t.DType() {
	case Float32:
		data := t.raw.AsFloat32()
		for i := range data {
			data[i] = float32(sample())
		}
	case Float64:
		data := t.raw.AsFloat64()
		for i := range data {
			data[i] = sample()
		}
	case Float16:
		data := t.raw.AsFloat16()
		for i := range data {
			data[i] = float16.Fromfloat32(float32(sample()))
		}
	case BFloat16:
		data := t.raw.AsBFloat16()
		for i := range data {
			data[i] = bfloat16.FromFloat32(float32(sample()))
		}
	default:
		panic(fmt.Sprintf("random init: unsupported dtype %s", t.DType()))
	}
}

// Arange creates a 1-D tensor with values from start to end (exclusive),
// stepping by one. Supported for float32/float64/int32/int64.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := arangeLen(start, end)
	t := mustNew[T, B](Shape{n}, b)
	data := t.Data()

	switch d := any(data).(type) {
	case []float32:
		v := any(start).(float32)
		for i := range d {
			d[i] = v + float32(i)
		}
	case []float64:
		v := any(start).(float64)
		for i := range d {
			d[i] = v + float64(i)
		}
	case []int32:
		v := any(start).(int32)
		for i := range d {
			d[i] = v + int32(i)
		}
	case []int64:
		v := any(start).(int64)
		for i := range d {
			d[i] = v + int64(i)
		}
	default:
		panic("arange: unsupported dtype")
	}
	return t
}

func arangeLen[T DType](start, end T) int {
	switch s := any(start).(type) {
	case float32:
		n := int(any(end).(float32) - s)
		return max(n, 0)
	case float64:
		n := int(any(end).(float64) - s)
		return max(n, 0)
	case int32:
		n := int(any(end).(int32) - s)
		return max(n, 0)
	case int64:
		n := int(any(end).(int64) - s)
		return max(n, 0)
	default:
		panic("arange: unsupported dtype")
	}
}

// Eye creates an n-by-n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	one := oneValue[T]()
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = one
	}
	return t
}
