// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers and learning rate
// schedulers.
//
// An Optimizer updates the parameters it was constructed with from a
// gradient map produced by an autodiff backward pass:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewLinear(backend, 1, 1, true)
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01}, backend)
//
//	for i := 0; i < steps; i++ {
//	    backend.Tape().StartRecording()
//	    loss := criterion.Forward(model.Forward(x), y)
//	    grads, _ := autodiff.Backward(loss, backend)
//	    opt.Step(grads)
//	    opt.ZeroGrad()
//	}
package optim

import (
	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/optim"
	"github.com/warp-ml/warp/tensor"
)

// Optimizer updates parameters from accumulated gradients.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum and weight
// decay.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD. A zero LR defaults to 0.01.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over params.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// Adam is the adaptive moment estimation optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures Adam. Zero values default to LR 0.001, betas
// (0.9, 0.999) and epsilon 1e-8.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over params.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}

// Scheduler adjusts an optimizer's learning rate per epoch.
type Scheduler = optim.Scheduler

// StepLR decays the learning rate by gamma every stepSize epochs.
type StepLR = optim.StepLR

// NewStepLR creates a StepLR scheduler.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) *StepLR {
	return optim.NewStepLR(opt, stepSize, gamma)
}

// ExponentialLR decays the learning rate by gamma every epoch.
type ExponentialLR = optim.ExponentialLR

// NewExponentialLR creates an ExponentialLR scheduler.
func NewExponentialLR(opt Optimizer, gamma float32) *ExponentialLR {
	return optim.NewExponentialLR(opt, gamma)
}

// CosineAnnealingLR anneals the learning rate along a cosine curve from
// the base rate to etaMin over tMax epochs.
type CosineAnnealingLR = optim.CosineAnnealingLR

// NewCosineAnnealingLR creates a CosineAnnealingLR scheduler.
func NewCosineAnnealingLR(opt Optimizer, tMax int, etaMin float32) *CosineAnnealingLR {
	return optim.NewCosineAnnealingLR(opt, tMax, etaMin)
}
