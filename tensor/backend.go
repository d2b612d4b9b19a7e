// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/warp-ml/warp/internal/tensor"

// Backend is the kernel surface compute backends implement.
//
// Kernel calls are synchronous and panic with category-tagged messages on
// precondition violations; constructors return errors instead.
//
// Implementations:
//   - backend/cpu: portable Go kernels with gonum BLAS matrix paths
//   - backend/webgpu: WGSL compute pipelines with a host fallback
//   - autodiff: decorator that records operations for backpropagation
type Backend = tensor.Backend

// PadMode selects the boundary policy for padding operations.
type PadMode = tensor.PadMode

// Supported padding modes.
const (
	PadConstant  PadMode = tensor.PadConstant
	PadReflect   PadMode = tensor.PadReflect
	PadReplicate PadMode = tensor.PadReplicate
	PadZero      PadMode = tensor.PadZero
)
