package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Pad pads the trailing len(pads)/2 dimensions of x. pads holds
// (before, after) pairs starting from the last dimension, matching the
// PyTorch convention. Reflect padding requires pad < dim size on each
// padded dimension; unsupported combinations panic rather than clamp.
func (c *Backend) Pad(x *tensor.RawTensor, pads []int, mode tensor.PadMode, value float64) *tensor.RawTensor {
	if len(pads) == 0 || len(pads)%2 != 0 {
		panic(fmt.Sprintf("cpu: Pad needs (before, after) pairs, got %d values", len(pads)))
	}
	shape := x.Shape()
	nPadded := len(pads) / 2
	if nPadded > len(shape) {
		panic(fmt.Sprintf("cpu: Pad covers %d dimensions but tensor has %d", nPadded, len(shape)))
	}
	if x.DType() == tensor.Bool && mode != tensor.PadConstant && mode != tensor.PadZero {
		panic(fmt.Sprintf("cpu: Pad mode %s is not defined for bool tensors", mode))
	}

	// before[d]/after[d] in dimension order.
	before := make([]int, len(shape))
	after := make([]int, len(shape))
	for i := 0; i < nPadded; i++ {
		d := len(shape) - 1 - i
		before[d] = pads[2*i]
		after[d] = pads[2*i+1]
		if before[d] < 0 || after[d] < 0 {
			panic(fmt.Sprintf("cpu: negative padding %d on dimension %d", min(before[d], after[d]), d))
		}
		if mode == tensor.PadReflect && (before[d] >= shape[d] || after[d] >= shape[d]) {
			panic(fmt.Sprintf("cpu: reflect padding %d exceeds dimension size %d", max(before[d], after[d]), shape[d]))
		}
		if (mode == tensor.PadReflect || mode == tensor.PadReplicate) && shape[d] == 0 {
			panic(fmt.Sprintf("cpu: %s padding on empty dimension %d", mode, d))
		}
	}

	outShape := make(tensor.Shape, len(shape))
	for d := range shape {
		outShape[d] = shape[d] + before[d] + after[d]
	}

	x = contiguous(x)
	out := mustRaw(outShape, x.DType(), x.Device())
	if mode == tensor.PadZero {
		value = 0
	}

	inStrides := shape.ComputeStrides()
	total := outShape.NumElements()
	coords := make([]int, len(outShape))
	src := make([]int, len(outShape))
	for flat := 0; flat < total; flat++ {
		inside := true
		for d := range coords {
			s := coords[d] - before[d]
			switch mode {
			case tensor.PadConstant, tensor.PadZero:
				if s < 0 || s >= shape[d] {
					inside = false
				}
			case tensor.PadReflect:
				if s < 0 {
					s = -s
				} else if s >= shape[d] {
					s = 2*(shape[d]-1) - s
				}
			case tensor.PadReplicate:
				if s < 0 {
					s = 0
				} else if s >= shape[d] {
					s = shape[d] - 1
				}
			default:
				panic(fmt.Sprintf("cpu: unknown pad mode %d", mode))
			}
			src[d] = s
			if !inside {
				break
			}
		}

		if inside {
			off := 0
			for d := range src {
				off += src[d] * inStrides[d]
			}
			if x.DType() == tensor.Bool {
				out.AsBool()[flat] = x.AsBool()[off]
			} else if x.DType().IsComplex() {
				storeComplex(out, flat, loadComplex(x, off))
			} else {
				storeFloat(out, flat, loadFloat(x, off))
			}
		} else {
			if x.DType() == tensor.Bool {
				out.AsBool()[flat] = value != 0
			} else if x.DType().IsComplex() {
				storeComplex(out, flat, complex(value, 0))
			} else {
				storeFloat(out, flat, value)
			}
		}

		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < outShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return out
}
