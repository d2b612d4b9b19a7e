// Package optim implements gradient-based optimizers and learning rate
// schedulers. Optimizers consume the gradient map produced by the
// autodiff backward pass and update parameters in place; schedulers
// adjust an optimizer's learning rate between epochs.
package optim

import (
	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/tensor"
)

// Optimizer is the common interface of all optimization algorithms.
type Optimizer interface {
	// Step applies one update from a gradient map keyed by parameter
	// raw tensors. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradients of every managed parameter.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR replaces the learning rate; schedulers call this.
	SetLR(lr float32)

	// Name identifies the algorithm for checkpoint headers.
	Name() string

	// StateDict exports internal buffers (velocities, moments) for
	// checkpointing. LoadStateDict restores them.
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// gradientFor returns the gradient recorded for a parameter, preferring
// the explicit map and falling back to the gradient accumulated on the
// parameter itself.
func gradientFor[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	if g, ok := grads[param.Tensor().Raw()]; ok {
		return g
	}
	if g := param.Grad(); g != nil {
		return g.Raw()
	}
	return nil
}
