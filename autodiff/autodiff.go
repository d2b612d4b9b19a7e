// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The autodiff backend decorates any tensor.Backend: operations executed
// while the tape is recording are registered together with their backward
// functions, and Backward replays the tape in reverse to accumulate
// gradients.
//
// Example:
//
//	import (
//	    "github.com/warp-ml/warp/autodiff"
//	    "github.com/warp-ml/warp/backend/cpu"
//	    "github.com/warp-ml/warp/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    x, _ := tensor.FromSlice([]float32{3}, tensor.Shape{}, backend)
//	    x.Raw().SetRequiresGrad(true)
//
//	    y := x.Mul(x) // y = x^2
//	    grads, _ := autodiff.Backward(y, backend)
//	    fmt.Println(grads.Of(x.Raw()).AsFloat32()) // [6]
//	}
package autodiff

import (
	"github.com/warp-ml/warp/internal/autodiff"
	"github.com/warp-ml/warp/tensor"
)

// Backend decorates an inner backend with gradient recording.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates an autodiff backend wrapping the given inner backend.
// Recording starts disabled; call Tape().StartRecording() to begin.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records executed operations for the backward pass.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Gradients maps every graph tensor to its accumulated gradient.
type Gradients = autodiff.Gradients

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward differentiates the graph ending at t with an implicit seed of
// ones. The implicit seed exists only for scalar outputs. The graph is
// freed afterwards; use BackwardRetain to differentiate it again.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) (Gradients, error) {
	return autodiff.Backward(t, backend)
}

// BackwardRetain is Backward with the graph kept alive; gradients
// accumulate across passes.
func BackwardRetain[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) (Gradients, error) {
	return autodiff.BackwardRetain(t, backend)
}

// BackwardWithGrad differentiates with an explicit output gradient, which
// must match t's shape, element type and device. Required for non-scalar
// outputs.
func BackwardWithGrad[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], seed *tensor.RawTensor, backend B) (Gradients, error) {
	return autodiff.BackwardWithGrad(t, seed, backend)
}
