package optim

import (
	"fmt"

	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// decoupled L2 weight decay.
//
// Without momentum: param -= lr * (grad + weightDecay * param).
// With momentum:    velocity = momentum * velocity + grad,
//
//	param -= lr * velocity.
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	decay      float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig configures SGD. Zero values take the defaults noted on each
// field.
type SGDConfig struct {
	LR          float32 // default 0.01
	Momentum    float32 // default 0, must be in [0, 1)
	WeightDecay float32 // default 0
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Momentum < 0 || config.Momentum >= 1 {
		panic(fmt.Sprintf("optim: momentum %v outside [0, 1)", config.Momentum))
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		decay:      config.WeightDecay,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}

// Step applies one descent update to every parameter with a gradient.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := gradientFor(param, grads)
		if grad == nil {
			continue
		}

		gradData := grad.AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()

		if s.momentum == 0 {
			for i := range paramData {
				g := gradData[i] + s.decay*paramData[i]
				paramData[i] -= s.lr * g
			}
			continue
		}

		velocity := s.velocities[param]
		if velocity == nil {
			velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
			s.velocities[param] = velocity
		}
		velData := velocity.Raw().AsFloat32()
		for i := range paramData {
			g := gradData[i] + s.decay*paramData[i]
			velData[i] = s.momentum*velData[i] + g
			paramData[i] -= s.lr * velData[i]
		}
	}
}

// ZeroGrad clears the gradients of all managed parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float32 { return s.lr }

// SetLR replaces the learning rate.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }

// Name returns "SGD".
func (s *SGD[B]) Name() string { return "SGD" }

// StateDict exports momentum velocities keyed by parameter index. With
// momentum disabled the state is empty.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return state
	}
	for i, param := range s.params {
		if velocity, ok := s.velocities[param]; ok {
			state[fmt.Sprintf("velocity.%d", i)] = velocity.Raw()
		}
	}
	return state
}

// LoadStateDict restores momentum velocities. Missing entries stay at
// zero initialization; shape mismatches fail.
func (s *SGD[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}
	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for i, param := range s.params {
		raw, ok := state[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("optim: velocity shape mismatch for parameter %d: got %v, want %v",
				i, raw.Shape(), param.Tensor().Shape())
		}
		s.velocities[param] = tensor.New[float32, B](raw, s.backend)
	}
	return nil
}
