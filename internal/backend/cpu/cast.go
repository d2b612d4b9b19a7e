package cpu

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Cast converts x to another element type. Same-dtype casts still copy, so
// the result never aliases the input. Pairs outside the defined conversion
// matrix panic with the unsupported-cast sentinel message.
func (c *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if !tensor.CanCast(x.DType(), dtype) {
		panic(fmt.Sprintf("cpu: %v: %s to %s", tensor.ErrUnsupportedCast, x.DType(), dtype))
	}
	x = contiguous(x)

	if x.DType() == dtype {
		out := mustRaw(x.Shape(), dtype, x.Device())
		copy(out.Data(), x.Data()[:x.NumElements()*dtype.Size()])
		return out
	}

	out := mustRaw(x.Shape(), dtype, x.Device())
	n := x.NumElements()

	switch {
	case x.DType().IsComplex():
		for i := 0; i < n; i++ {
			storeComplex(out, i, loadComplex(x, i))
		}
	case dtype.IsComplex():
		for i := 0; i < n; i++ {
			storeComplex(out, i, complex(castLoad(x, i), 0))
		}
	case dtype == tensor.Bool:
		ov := out.AsBool()
		for i := 0; i < n; i++ {
			ov[i] = castLoad(x, i) != 0
		}
	default:
		for i := 0; i < n; i++ {
			storeFloat(out, i, castLoad(x, i))
		}
	}
	return out
}

// castLoad reads any real element (bool included) as float64.
func castLoad(x *tensor.RawTensor, i int) float64 {
	if x.DType() == tensor.Bool {
		if x.AsBool()[i] {
			return 1
		}
		return 0
	}
	return loadFloat(x, i)
}
