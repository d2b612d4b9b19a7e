package ops

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// reduceBroadcast folds a gradient back to the shape of a forward input
// that was broadcast. Leading broadcast dimensions are summed away,
// interior size-1 dimensions are summed with keepDim.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1]
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		// Clone so accumulation never mutates a gradient shared with
		// another consumer of the same tensor.
		return grad.Clone()
	}
	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}
	for i, size := range targetShape {
		if size == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}
	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// zerosLike returns a zero-filled tensor with x's geometry.
func zerosLike(x *tensor.RawTensor) *tensor.RawTensor {
	out, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("ops: %v", err))
	}
	return out
}

// spreadToShape broadcasts a reduced gradient back over the reduced
// dimension: grad is reshaped to keepDim form, expanded to shape, and
// compacted so downstream kernels see a contiguous tensor.
func spreadToShape(grad *tensor.RawTensor, shape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	g := grad
	if !keepDim {
		g = backend.Unsqueeze(g, dim)
	}
	g = backend.Expand(g, shape)
	return backend.Reshape(g, shape)
}
