package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// scalarOp applies a float (or complex) function of one tensor element and
// one boxed scalar. The scalar is converted once, outside the loop.
func (c *Backend) scalarOp(op string, x *tensor.RawTensor, s tensor.Scalar,
	f32 func(x, s float32) float32,
	f64 func(x, s float64) float64,
	cplx func(x, s complex128) complex128,
) *tensor.RawTensor {
	if x.DType() == tensor.Bool {
		panic(fmt.Sprintf("cpu: %s is not defined for %s tensors", op, x.DType()))
	}
	x = contiguous(x)
	out := mustRaw(x.Shape(), x.DType(), x.Device())

	switch {
	case x.DType() == tensor.Float32:
		sv := float32(s.Float64())
		xv, ov := x.AsFloat32(), out.AsFloat32()
		for i := range ov {
			ov[i] = f32(xv[i], sv)
		}
	case x.DType().IsComplex():
		sv := s.Complex128()
		for i := 0; i < out.NumElements(); i++ {
			storeComplex(out, i, cplx(loadComplex(x, i), sv))
		}
	default:
		sv := s.Float64()
		for i := 0; i < out.NumElements(); i++ {
			storeFloat(out, i, f64(loadFloat(x, i), sv))
		}
	}
	return out
}

// AddScalar computes x + s element-wise.
func (c *Backend) AddScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return c.scalarOp("AddScalar", x, s,
		func(x, s float32) float32 { return x + s },
		func(x, s float64) float64 { return x + s },
		func(x, s complex128) complex128 { return x + s })
}

// SubScalar computes x - s element-wise.
func (c *Backend) SubScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return c.scalarOp("SubScalar", x, s,
		func(x, s float32) float32 { return x - s },
		func(x, s float64) float64 { return x - s },
		func(x, s complex128) complex128 { return x - s })
}

// MulScalar computes x * s element-wise.
func (c *Backend) MulScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	return c.scalarOp("MulScalar", x, s,
		func(x, s float32) float32 { return x * s },
		func(x, s float64) float64 { return x * s },
		func(x, s complex128) complex128 { return x * s })
}

// DivScalar computes x / s element-wise. Integer tensors divide exactly in
// int64, truncate toward zero and panic on a zero divisor.
func (c *Backend) DivScalar(x *tensor.RawTensor, s tensor.Scalar) *tensor.RawTensor {
	if x.DType().IsInteger() {
		sv := s.Int64()
		if sv == 0 {
			panic("cpu: DivScalar integer division by zero")
		}
		x = contiguous(x)
		out := mustRaw(x.Shape(), x.DType(), x.Device())
		for i := 0; i < out.NumElements(); i++ {
			storeInt(out, i, loadInt(x, i)/sv)
		}
		return out
	}
	return c.scalarOp("DivScalar", x, s,
		func(x, s float32) float32 { return x / s },
		func(x, s float64) float64 { return x / s },
		func(x, s complex128) complex128 { return x / s })
}
