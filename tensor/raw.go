// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/warp-ml/warp/internal/tensor"

// RawTensor is the low-level tensor handle: an n-dimensional strided view
// into a reference-counted buffer.
//
// RawTensor provides shape and type metadata, typed element access through
// the As* views, view construction without copying, and explicit Release
// with idempotent semantics. Most users should work with the high-level
// Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor
