package optim

import (
	"fmt"
	"math"

	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/tensor"
)

// Adam implements adaptive moment estimation (Kingma & Ba, 2014) with
// bias-corrected first and second moments and optional L2 weight decay.
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	decay   float32
	t       int
	m       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	v       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend B
}

// AdamConfig configures Adam. Zero values take the defaults noted on
// each field.
type AdamConfig struct {
	LR          float32    // default 0.001
	Betas       [2]float32 // default [0.9, 0.999]
	Eps         float32    // default 1e-8
	WeightDecay float32    // default 0
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		decay:   config.WeightDecay,
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
}

// Step applies one Adam update to every parameter with a gradient. The
// timestep advances once per call, not per parameter.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	correction1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	correction2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := gradientFor(param, grads)
		if grad == nil {
			continue
		}

		m := a.moment(a.m, param)
		v := a.moment(a.v, param)

		gradData := grad.AsFloat32()
		mData := m.Raw().AsFloat32()
		vData := v.Raw().AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()

		for i := range paramData {
			g := gradData[i] + a.decay*paramData[i]
			mData[i] = a.beta1*mData[i] + (1-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1-a.beta2)*g*g

			mHat := mData[i] / correction1
			vHat := vData[i] / correction2
			paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

func (a *Adam[B]) moment(buf map[*nn.Parameter[B]]*tensor.Tensor[float32, B], param *nn.Parameter[B]) *tensor.Tensor[float32, B] {
	if m, ok := buf[param]; ok {
		return m
	}
	m := tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
	buf[param] = m
	return m
}

// ZeroGrad clears the gradients of all managed parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float32 { return a.lr }

// SetLR replaces the learning rate.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Name returns "Adam".
func (a *Adam[B]) Name() string { return "Adam" }

// Timestep returns the number of Step calls applied so far.
func (a *Adam[B]) Timestep() int { return a.t }

// StateDict exports both moment buffers keyed by parameter index, plus
// the timestep under "t".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			state[fmt.Sprintf("m.%d", i)] = m.Raw()
		}
		if v, ok := a.v[param]; ok {
			state[fmt.Sprintf("v.%d", i)] = v.Raw()
		}
	}
	if a.t > 0 {
		step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, a.backend.Device())
		if err == nil {
			step.AsInt64()[0] = int64(a.t)
			state["t"] = step
		}
	}
	return state
}

// LoadStateDict restores the moment buffers and timestep.
func (a *Adam[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	a.v = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for i, param := range a.params {
		if raw, ok := state[fmt.Sprintf("m.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("optim: first moment shape mismatch for parameter %d: got %v, want %v",
					i, raw.Shape(), param.Tensor().Shape())
			}
			a.m[param] = tensor.New[float32, B](raw, a.backend)
		}
		if raw, ok := state[fmt.Sprintf("v.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("optim: second moment shape mismatch for parameter %d: got %v, want %v",
					i, raw.Shape(), param.Tensor().Shape())
			}
			a.v[param] = tensor.New[float32, B](raw, a.backend)
		}
	}
	if raw, ok := state["t"]; ok {
		a.t = int(raw.AsInt64()[0])
	}
	return nil
}
