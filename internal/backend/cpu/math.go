package cpu

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/warp-ml/warp/internal/tensor"
)

// unaryOp applies an element-wise function. Float32 gets a direct loop;
// other real dtypes go through the float64 lane; complex dtypes use cplx
// when provided and panic otherwise.
func (c *Backend) unaryOp(op string, x *tensor.RawTensor,
	f32 func(x float32) float32,
	f64 func(x float64) float64,
	cplx func(x complex128) complex128,
) *tensor.RawTensor {
	if x.DType() == tensor.Bool {
		panic(fmt.Sprintf("cpu: %s is not defined for %s tensors", op, x.DType()))
	}
	if x.DType().IsComplex() && cplx == nil {
		panic(fmt.Sprintf("cpu: %s is not defined for %s tensors", op, x.DType()))
	}
	x = contiguous(x)
	out := mustRaw(x.Shape(), x.DType(), x.Device())

	switch {
	case x.DType() == tensor.Float32:
		xv, ov := x.AsFloat32(), out.AsFloat32()
		for i := range ov {
			ov[i] = f32(xv[i])
		}
	case x.DType().IsComplex():
		for i := 0; i < out.NumElements(); i++ {
			storeComplex(out, i, cplx(loadComplex(x, i)))
		}
	default:
		for i := 0; i < out.NumElements(); i++ {
			storeFloat(out, i, f64(loadFloat(x, i)))
		}
	}
	return out
}

// Neg negates every element.
func (c *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Neg", x,
		func(v float32) float32 { return -v },
		func(v float64) float64 { return -v },
		func(v complex128) complex128 { return -v })
}

// Exp computes e**x element-wise.
func (c *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp,
		cmplx.Exp)
}

// Log computes the natural logarithm element-wise.
func (c *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Log", x,
		func(v float32) float32 { return float32(math.Log(float64(v))) },
		math.Log,
		cmplx.Log)
}

// Sqrt computes the square root element-wise.
func (c *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Sqrt", x,
		func(v float32) float32 { return float32(math.Sqrt(float64(v))) },
		math.Sqrt,
		cmplx.Sqrt)
}

// Rsqrt computes the reciprocal square root element-wise.
func (c *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Rsqrt", x,
		func(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) },
		func(v float64) float64 { return 1 / math.Sqrt(v) },
		func(v complex128) complex128 { return 1 / cmplx.Sqrt(v) })
}

// Pow raises every element to a fixed real exponent.
func (c *Backend) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	return c.unaryOp("Pow", x,
		func(v float32) float32 { return float32(math.Pow(float64(v), exponent)) },
		func(v float64) float64 { return math.Pow(v, exponent) },
		func(v complex128) complex128 { return cmplx.Pow(v, complex(exponent, 0)) })
}

// Tanh computes the hyperbolic tangent element-wise.
func (c *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Tanh", x,
		func(v float32) float32 { return float32(math.Tanh(float64(v))) },
		math.Tanh,
		cmplx.Tanh)
}

// Sigmoid computes 1/(1+e**-x) element-wise.
func (c *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("Sigmoid", x,
		func(v float32) float32 { return float32(1 / (1 + math.Exp(-float64(v)))) },
		func(v float64) float64 { return 1 / (1 + math.Exp(-v)) },
		nil)
}

// ReLU computes max(x, 0) element-wise.
func (c *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("ReLU", x,
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		},
		nil)
}

// Softmax normalizes along dim with the max-subtraction trick so large
// logits do not overflow. Negative dims count from the end.
func (c *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("cpu: Softmax requires a float tensor, got %s", x.DType()))
	}
	x = contiguous(x)
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	out := mustRaw(shape, x.DType(), x.Device())

	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := shape.NumElements() / max(dimSize*inner, 1)

	row := make([]float64, dimSize)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := math.Inf(-1)
			for d := 0; d < dimSize; d++ {
				row[d] = loadFloat(x, base+d*inner)
				if row[d] > maxVal {
					maxVal = row[d]
				}
			}
			sum := 0.0
			for d := 0; d < dimSize; d++ {
				row[d] = math.Exp(row[d] - maxVal)
				sum += row[d]
			}
			for d := 0; d < dimSize; d++ {
				storeFloat(out, base+d*inner, row[d]/sum)
			}
		}
	}
	return out
}

// normalizeDim resolves negative dims and bounds-checks the result.
func normalizeDim(dim, ndim int) int {
	orig := dim
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cpu: dimension %d out of range for tensor of dimension %d", orig, ndim))
	}
	return dim
}
