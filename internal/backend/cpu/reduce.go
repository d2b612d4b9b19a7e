package cpu

import (
	"fmt"
	"math"

	"github.com/warp-ml/warp/internal/tensor"
)

// Sum reduces every element to a scalar tensor of the same dtype.
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Bool {
		panic("cpu: Sum is not defined for bool tensors")
	}
	x = contiguous(x)
	out := mustRaw(tensor.Shape{}, x.DType(), x.Device())

	if x.DType().IsComplex() {
		var sum complex128
		for i := 0; i < x.NumElements(); i++ {
			sum += loadComplex(x, i)
		}
		storeComplex(out, 0, sum)
		return out
	}
	var sum float64
	for i := 0; i < x.NumElements(); i++ {
		sum += loadFloat(x, i)
	}
	storeFloat(out, 0, sum)
	return out
}

// reduceDim folds along dim, writing one accumulated value per lane.
// The output keeps dim as size 1 when keepDim is set, drops it otherwise.
func reduceDim(x *tensor.RawTensor, dim int, keepDim bool,
	fold func(acc, v float64, idx int) float64,
	finish func(acc float64, n int) float64,
	init float64,
) *tensor.RawTensor {
	x = contiguous(x)
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}

	out := mustRaw(outShape, x.DType(), x.Device())

	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := shape.NumElements() / max(dimSize*inner, 1)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			acc := init
			for d := 0; d < dimSize; d++ {
				acc = fold(acc, loadFloat(x, base+d*inner), d)
			}
			storeFloat(out, o*inner+in, finish(acc, dimSize))
		}
	}
	return out
}

// SumDim sums along dim.
func (c *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() == tensor.Bool || x.DType().IsComplex() {
		panic(fmt.Sprintf("cpu: SumDim is not defined for %s tensors", x.DType()))
	}
	return reduceDim(x, dim, keepDim,
		func(acc, v float64, _ int) float64 { return acc + v },
		func(acc float64, _ int) float64 { return acc },
		0)
}

// MeanDim averages along dim.
func (c *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("cpu: MeanDim requires a float tensor, got %s", x.DType()))
	}
	return reduceDim(x, dim, keepDim,
		func(acc, v float64, _ int) float64 { return acc + v },
		func(acc float64, n int) float64 { return acc / float64(n) },
		0)
}

// Argmax returns Int64 indices of the maximum along dim (first hit wins on
// ties). The reduced dimension is dropped.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() == tensor.Bool || x.DType().IsComplex() {
		panic(fmt.Sprintf("cpu: Argmax is not defined for %s tensors", x.DType()))
	}
	x = contiguous(x)
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if shape[dim] == 0 {
		panic("cpu: Argmax over an empty dimension")
	}

	outShape := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}
	out := mustRaw(outShape, tensor.Int64, x.Device())
	ov := out.AsInt64()

	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := shape.NumElements() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			best, bestIdx := math.Inf(-1), 0
			for d := 0; d < dimSize; d++ {
				if v := loadFloat(x, base+d*inner); v > best {
					best, bestIdx = v, d
				}
			}
			ov[o*inner+in] = int64(bestIdx)
		}
	}
	return out
}
