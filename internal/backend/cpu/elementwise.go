package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// broadcastPlan holds per-dimension strides of both operands expressed in the
// coordinate space of the broadcast output. Broadcast dimensions carry a zero
// stride, so walking the output odometer reads the same source element for
// every position along them.
type broadcastPlan struct {
	outShape tensor.Shape
	aStrides []int
	bStrides []int
}

func planBroadcast(a, b *tensor.RawTensor) broadcastPlan {
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}

	n := len(outShape)
	plan := broadcastPlan{
		outShape: outShape,
		aStrides: make([]int, n),
		bStrides: make([]int, n),
	}

	aShape, aStr := a.Shape(), a.Shape().ComputeStrides()
	bShape, bStr := b.Shape(), b.Shape().ComputeStrides()
	for i := 0; i < n; i++ {
		if ai := i - (n - len(aShape)); ai >= 0 && aShape[ai] != 1 {
			plan.aStrides[i] = aStr[ai]
		}
		if bi := i - (n - len(bShape)); bi >= 0 && bShape[bi] != 1 {
			plan.bStrides[i] = bStr[bi]
		}
	}
	return plan
}

// forEachPair walks the broadcast output in row-major order and invokes fn
// with the flat output index and the source offsets of both operands.
func (p broadcastPlan) forEachPair(fn func(out, ai, bi int)) {
	total := p.outShape.NumElements()
	if total == 0 {
		return
	}
	coords := make([]int, len(p.outShape))
	ai, bi := 0, 0
	for flat := 0; flat < total; flat++ {
		fn(flat, ai, bi)

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			ai += p.aStrides[d]
			bi += p.bStrides[d]
			if coords[d] < p.outShape[d] {
				break
			}
			ai -= coords[d] * p.aStrides[d]
			bi -= coords[d] * p.bStrides[d]
			coords[d] = 0
		}
	}
}

func checkBinaryDTypes(op string, a, b *tensor.RawTensor) {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("cpu: %s dtype mismatch: %s vs %s", op, a.DType(), b.DType()))
	}
	if a.DType() == tensor.Bool {
		panic(fmt.Sprintf("cpu: %s is not defined for %s tensors", op, a.DType()))
	}
}

// binaryOp applies f32 fast paths when shapes match, and the float64 or
// complex128 lane with a broadcast odometer otherwise.
func (c *Backend) binaryOp(op string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
	cplx func(x, y complex128) complex128,
) *tensor.RawTensor {
	checkBinaryDTypes(op, a, b)
	a, b = contiguous(a), contiguous(b)

	if a.DType().IsComplex() && cplx == nil {
		panic(fmt.Sprintf("cpu: %s is not defined for %s tensors", op, a.DType()))
	}

	if a.Shape().Equal(b.Shape()) {
		out := mustRaw(a.Shape(), a.DType(), a.Device())
		switch {
		case a.DType() == tensor.Float32:
			av, bv, ov := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
			for i := range ov {
				ov[i] = f32(av[i], bv[i])
			}
		case a.DType().IsComplex():
			for i := 0; i < out.NumElements(); i++ {
				storeComplex(out, i, cplx(loadComplex(a, i), loadComplex(b, i)))
			}
		default:
			for i := 0; i < out.NumElements(); i++ {
				storeFloat(out, i, f64(loadFloat(a, i), loadFloat(b, i)))
			}
		}
		return out
	}

	plan := planBroadcast(a, b)
	out := mustRaw(plan.outShape, a.DType(), a.Device())
	switch {
	case a.DType() == tensor.Float32:
		av, bv, ov := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		plan.forEachPair(func(o, ai, bi int) {
			ov[o] = f32(av[ai], bv[bi])
		})
	case a.DType().IsComplex():
		plan.forEachPair(func(o, ai, bi int) {
			storeComplex(out, o, cplx(loadComplex(a, ai), loadComplex(b, bi)))
		})
	default:
		plan.forEachPair(func(o, ai, bi int) {
			storeFloat(out, o, f64(loadFloat(a, ai), loadFloat(b, bi)))
		})
	}
	return out
}

// Add computes a + b with broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("Add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y },
		func(x, y complex128) complex128 { return x + y })
}

// Sub computes a - b with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("Sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y },
		func(x, y complex128) complex128 { return x - y })
}

// Mul computes a * b element-wise with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("Mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y },
		func(x, y complex128) complex128 { return x * y })
}

// intBinaryOp is the exact integer counterpart of binaryOp. The float64 lane
// rounds int64 values above 2^53, so integer kernels that must be exact go
// through here.
func (c *Backend) intBinaryOp(op string, a, b *tensor.RawTensor, f func(x, y int64) int64) *tensor.RawTensor {
	checkBinaryDTypes(op, a, b)
	a, b = contiguous(a), contiguous(b)

	if a.Shape().Equal(b.Shape()) {
		out := mustRaw(a.Shape(), a.DType(), a.Device())
		for i := 0; i < out.NumElements(); i++ {
			storeInt(out, i, f(loadInt(a, i), loadInt(b, i)))
		}
		return out
	}

	plan := planBroadcast(a, b)
	out := mustRaw(plan.outShape, a.DType(), a.Device())
	plan.forEachPair(func(o, ai, bi int) {
		storeInt(out, o, f(loadInt(a, ai), loadInt(b, bi)))
	})
	return out
}

// Div computes a / b element-wise with broadcasting. Integer division
// truncates toward zero like Go's native division and panics on a zero
// divisor.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType().IsInteger() {
		return c.intBinaryOp("Div", a, b, func(x, y int64) int64 {
			if y == 0 {
				panic("cpu: Div integer division by zero")
			}
			return x / y
		})
	}
	return c.binaryOp("Div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y },
		func(x, y complex128) complex128 { return x / y })
}

// compareOp evaluates a predicate over broadcast pairs into a Bool tensor.
func (c *Backend) compareOp(op string, a, b *tensor.RawTensor, pred func(x, y float64) bool) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("cpu: %s dtype mismatch: %s vs %s", op, a.DType(), b.DType()))
	}
	a, b = contiguous(a), contiguous(b)

	plan := planBroadcast(a, b)
	out := mustRaw(plan.outShape, tensor.Bool, a.Device())
	ov := out.AsBool()
	plan.forEachPair(func(o, ai, bi int) {
		ov[o] = pred(loadFloat(a, ai), loadFloat(b, bi))
	})
	return out
}

// Greater compares a > b element-wise, returning a Bool tensor.
func (c *Backend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() == tensor.Bool || a.DType().IsComplex() {
		panic(fmt.Sprintf("cpu: Greater is not defined for %s tensors", a.DType()))
	}
	return c.compareOp("Greater", a, b, func(x, y float64) bool { return x > y })
}

// Equal compares a == b element-wise, returning a Bool tensor.
func (c *Backend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() == b.DType() && a.DType() == tensor.Bool {
		a, b = contiguous(a), contiguous(b)
		plan := planBroadcast(a, b)
		out := mustRaw(plan.outShape, tensor.Bool, a.Device())
		av, bv, ov := a.AsBool(), b.AsBool(), out.AsBool()
		plan.forEachPair(func(o, ai, bi int) {
			ov[o] = av[ai] == bv[bi]
		})
		return out
	}
	if a.DType().IsComplex() {
		if b.DType() != a.DType() {
			panic(fmt.Sprintf("cpu: Equal dtype mismatch: %s vs %s", a.DType(), b.DType()))
		}
		a, b = contiguous(a), contiguous(b)
		plan := planBroadcast(a, b)
		out := mustRaw(plan.outShape, tensor.Bool, a.Device())
		ov := out.AsBool()
		plan.forEachPair(func(o, ai, bi int) {
			ov[o] = loadComplex(a, ai) == loadComplex(b, bi)
		})
		return out
	}
	return c.compareOp("Equal", a, b, func(x, y float64) bool { return x == y })
}
