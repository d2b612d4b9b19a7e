// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU compute backend built on WebGPU.
//
// Dense float32 kernels run as WGSL compute shaders; operations without a
// shader path execute on the host fallback, so the backend serves the full
// kernel surface either way.
//
// Example:
//
//	import (
//	    "github.com/warp-ml/warp/autodiff"
//	    "github.com/warp-ml/warp/backend/cpu"
//	    "github.com/warp-ml/warp/backend/webgpu"
//	)
//
//	func main() {
//	    if !webgpu.IsAvailable() {
//	        backend := autodiff.New(cpu.New())
//	        _ = backend
//	        return
//	    }
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    backend := autodiff.New(gpu)
//	    _ = backend
//	}
package webgpu

import (
	internalwebgpu "github.com/warp-ml/warp/internal/backend/webgpu"
	"github.com/warp-ml/warp/tensor"
)

// Backend is the WebGPU compute backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend. It returns an error wrapping
// tensor.ErrDeviceUnavailable when no usable GPU adapter is present.
// Call Release when done to free device resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system. Use it to fall back to the CPU backend gracefully.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
