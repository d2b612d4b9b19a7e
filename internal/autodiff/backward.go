package autodiff

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Gradients maps every graph tensor to its accumulated gradient.
type Gradients map[*tensor.RawTensor]*tensor.RawTensor

// Of returns the gradient accumulated for r, or nil when no gradient
// reached it (an untaken branch, or a tensor outside the graph).
func (g Gradients) Of(r *tensor.RawTensor) *tensor.RawTensor {
	return g[r]
}

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape { return b.tape }

// Backward differentiates the graph ending at t with an implicit seed of
// ones. The implicit seed exists only for scalar outputs; differentiating
// a non-scalar without an explicit gradient fails with
// ErrNonScalarBackward. The graph is freed afterwards: call
// BackwardRetain to keep it for another pass.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) (Gradients, error) {
	return backward(t, backend, false)
}

// BackwardRetain is Backward with the graph kept alive, so the same graph
// can be differentiated again (gradients accumulate across passes).
func BackwardRetain[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) (Gradients, error) {
	return backward(t, backend, true)
}

func backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B, retain bool) (Gradients, error) {
	if !t.Shape().IsScalar() && t.Shape().NumElements() != 1 {
		return nil, fmt.Errorf("%w: output has shape %v", tensor.ErrNonScalarBackward, t.Shape())
	}
	seed, err := onesSeed(t.Raw(), backend.Device())
	if err != nil {
		return nil, err
	}
	grads, err := backend.GetTape().Backward(t.Raw(), seed, backend, retain)
	if err != nil {
		return nil, err
	}
	return grads, nil
}

// BackwardWithGrad differentiates the graph ending at t using an explicit
// output gradient, which must match t's shape, element type and device.
// Required for non-scalar outputs.
func BackwardWithGrad[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], seed *tensor.RawTensor, backend B) (Gradients, error) {
	if !seed.Shape().Equal(t.Shape()) {
		return nil, fmt.Errorf("%w: gradient shape %v does not match output shape %v",
			tensor.ErrShape, seed.Shape(), t.Shape())
	}
	if seed.DType() != t.DType() {
		return nil, fmt.Errorf("gradient dtype %s does not match output dtype %s", seed.DType(), t.DType())
	}
	if seed.Device() != t.Device() {
		return nil, fmt.Errorf("%w: gradient on %s does not match output on %s",
			tensor.ErrDeviceUnavailable, seed.Device(), t.Device())
	}
	grads, err := backend.GetTape().Backward(t.Raw(), seed, backend, false)
	if err != nil {
		return nil, err
	}
	return grads, nil
}

// onesSeed builds the implicit all-ones output gradient.
func onesSeed(out *tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	seed, err := tensor.NewRaw(out.Shape(), out.DType(), device)
	if err != nil {
		return nil, err
	}
	switch out.DType() {
	case tensor.Float32:
		for i := range seed.AsFloat32() {
			seed.AsFloat32()[i] = 1
		}
	case tensor.Float64:
		for i := range seed.AsFloat64() {
			seed.AsFloat64()[i] = 1
		}
	default:
		return nil, fmt.Errorf("implicit backward seed requires float32 or float64 output, got %s", out.DType())
	}
	return seed, nil
}
