// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host compute backend.
//
// # Overview
//
// The CPU backend implements every kernel of tensor.Backend in portable
// Go, routing dense float32 and float64 matrix products through gonum
// BLAS. Convolutions use direct loops with stride, padding, dilation and
// group support; all 15 element types are served.
//
// # Basic Usage
//
//	import (
//	    "github.com/warp-ml/warp/backend/cpu"
//	    "github.com/warp-ml/warp/nn"
//	    "github.com/warp-ml/warp/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    model := nn.NewLinear(784, 10, backend)
//	    _ = model
//	}
//
// # Thread Safety
//
// The backend itself holds no mutable state and is safe for concurrent
// use. Element access on shared tensors requires caller synchronization.
package cpu
