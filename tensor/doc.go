// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public tensor API of Warp.
//
// # Overview
//
// Tensors are strided views over reference-counted buffers. This package
// exposes:
//   - Tensor[T, B]: the generic type-safe handle
//   - RawTensor: the untyped low-level handle
//   - Backend: the kernel surface compute backends implement
//   - Shape, DataType, Device, Scalar: core value types
//
// # Basic Usage
//
//	import (
//	    "github.com/warp-ml/warp/backend/cpu"
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
//	    fmt.Println(z.Shape()) // [2 3]
//	}
//
// # Broadcasting
//
// Binary operations broadcast NumPy-style: trailing dimensions must be
// equal or 1. Use BroadcastShapes to compute a broadcast result shape
// without executing an operation.
//
// # Devices
//
// Tensors carry a device placement. The CPU backend serves host tensors;
// the WebGPU backend dispatches float32 kernels to a GPU. Use
// Tensor.To or Backend.Transfer to move data between placements.
package tensor
