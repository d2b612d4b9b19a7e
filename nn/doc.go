// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network module system and standard layers.
//
// # Modules
//
// A Module owns parameters, buffers and child modules registered on its
// Base. Registration order is preserved: parameter traversal yields a
// module's own parameters first, then each child's in registration order,
// with dotted paths ("encoder.0.weight") naming entries in state dicts.
//
//	type MLP[B tensor.Backend] struct {
//	    *nn.Base[B]
//	    hidden *nn.Linear[B]
//	    out    *nn.Linear[B]
//	}
//
//	func NewMLP[B tensor.Backend](b B) *MLP[B] {
//	    m := &MLP[B]{
//	        Base:   nn.NewBase[B](),
//	        hidden: nn.NewLinear(b, 784, 128, true),
//	        out:    nn.NewLinear(b, 128, 10, true),
//	    }
//	    m.RegisterModule("hidden", m.hidden)
//	    m.RegisterModule("out", m.out)
//	    return m
//	}
//
//	func (m *MLP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
//	    return m.out.Forward(m.hidden.Forward(x).ReLU())
//	}
//
// # Training
//
// Wrap a backend with autodiff, run Forward, apply a loss, differentiate,
// and hand the gradients to an optimizer. Train and Eval switch layers
// such as Dropout and BatchNorm2d between their two behaviors.
//
// # Persistence
//
// StateDict flattens a module tree to dotted names; SaveModel and
// LoadCheckpoint persist state dicts in the Warp container format (see
// the serialization layer for the layout).
package nn
