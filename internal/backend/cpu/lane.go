package cpu

import (
	"fmt"

	"github.com/d4l3k/go-bfloat16"
	"github.com/warp-ml/warp/internal/tensor"
	"github.com/x448/float16"
)

// The generic kernels move non-float32 element types through a float64 (or
// complex128) lane. float32 gets dedicated fast paths where it matters;
// everything else trades speed for one uniform implementation across the
// closed dtype set.

func loadFloat(r *tensor.RawTensor, i int) float64 {
	switch r.DType() {
	case tensor.Float32:
		return float64(r.AsFloat32()[i])
	case tensor.Float64:
		return r.AsFloat64()[i]
	case tensor.Float16:
		return float64(r.AsFloat16()[i].Float32())
	case tensor.BFloat16:
		return float64(bfloat16.ToFloat32(r.AsBFloat16()[i]))
	case tensor.Int8:
		return float64(r.AsInt8()[i])
	case tensor.Int16:
		return float64(r.AsInt16()[i])
	case tensor.Int32:
		return float64(r.AsInt32()[i])
	case tensor.Int64:
		return float64(r.AsInt64()[i])
	case tensor.Uint8:
		return float64(r.AsUint8()[i])
	case tensor.Uint16:
		return float64(r.AsUint16()[i])
	case tensor.Uint32:
		return float64(r.AsUint32()[i])
	case tensor.Uint64:
		return float64(r.AsUint64()[i])
	default:
		panic(fmt.Sprintf("cpu: cannot read %s through the float lane", r.DType()))
	}
}

func storeFloat(r *tensor.RawTensor, i int, v float64) {
	switch r.DType() {
	case tensor.Float32:
		r.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		r.AsFloat64()[i] = v
	case tensor.Float16:
		r.AsFloat16()[i] = float16.Fromfloat32(float32(v))
	case tensor.BFloat16:
		r.AsBFloat16()[i] = bfloat16.FromFloat32(float32(v))
	case tensor.Int8:
		r.AsInt8()[i] = int8(v)
	case tensor.Int16:
		r.AsInt16()[i] = int16(v)
	case tensor.Int32:
		r.AsInt32()[i] = int32(v)
	case tensor.Int64:
		r.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		r.AsUint8()[i] = uint8(v)
	case tensor.Uint16:
		r.AsUint16()[i] = uint16(v)
	case tensor.Uint32:
		r.AsUint32()[i] = uint32(v)
	case tensor.Uint64:
		r.AsUint64()[i] = uint64(v)
	default:
		panic(fmt.Sprintf("cpu: cannot write %s through the float lane", r.DType()))
	}
}

// loadInt and storeInt form an exact int64 lane for integer kernels whose
// results the float lane would round above 2^53, such as division.
func loadInt(r *tensor.RawTensor, i int) int64 {
	switch r.DType() {
	case tensor.Int8:
		return int64(r.AsInt8()[i])
	case tensor.Int16:
		return int64(r.AsInt16()[i])
	case tensor.Int32:
		return int64(r.AsInt32()[i])
	case tensor.Int64:
		return r.AsInt64()[i]
	case tensor.Uint8:
		return int64(r.AsUint8()[i])
	case tensor.Uint16:
		return int64(r.AsUint16()[i])
	case tensor.Uint32:
		return int64(r.AsUint32()[i])
	case tensor.Uint64:
		return int64(r.AsUint64()[i])
	default:
		panic(fmt.Sprintf("cpu: cannot read %s through the integer lane", r.DType()))
	}
}

func storeInt(r *tensor.RawTensor, i int, v int64) {
	switch r.DType() {
	case tensor.Int8:
		r.AsInt8()[i] = int8(v)
	case tensor.Int16:
		r.AsInt16()[i] = int16(v)
	case tensor.Int32:
		r.AsInt32()[i] = int32(v)
	case tensor.Int64:
		r.AsInt64()[i] = v
	case tensor.Uint8:
		r.AsUint8()[i] = uint8(v)
	case tensor.Uint16:
		r.AsUint16()[i] = uint16(v)
	case tensor.Uint32:
		r.AsUint32()[i] = uint32(v)
	case tensor.Uint64:
		r.AsUint64()[i] = uint64(v)
	default:
		panic(fmt.Sprintf("cpu: cannot write %s through the integer lane", r.DType()))
	}
}

func loadComplex(r *tensor.RawTensor, i int) complex128 {
	switch r.DType() {
	case tensor.Complex64:
		return complex128(r.AsComplex64()[i])
	case tensor.Complex128:
		return r.AsComplex128()[i]
	default:
		return complex(loadFloat(r, i), 0)
	}
}

func storeComplex(r *tensor.RawTensor, i int, v complex128) {
	switch r.DType() {
	case tensor.Complex64:
		r.AsComplex64()[i] = complex64(v)
	case tensor.Complex128:
		r.AsComplex128()[i] = v
	default:
		panic(fmt.Sprintf("cpu: cannot write complex value into %s", r.DType()))
	}
}
