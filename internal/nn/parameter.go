package nn

import "github.com/warp-ml/warp/internal/tensor"

// Parameter is a trainable tensor tracked by the module tree. The
// underlying tensor always has RequiresGrad set so the autodiff backend
// records operations touching it.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter wraps a tensor as a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	t.Raw().SetRequiresGrad(true)
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the local name the parameter was registered under.
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the underlying tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Grad returns the accumulated gradient, or nil before the first
// backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] { return p.tensor.Grad() }

// SetGrad replaces the accumulated gradient.
func (p *Parameter[B]) SetGrad(g *tensor.Tensor[float32, B]) { p.tensor.SetGrad(g) }

// AccumulateGrad adds g into the stored gradient.
func (p *Parameter[B]) AccumulateGrad(g *tensor.RawTensor) { p.tensor.AccumulateGrad(g) }

// ZeroGrad drops the stored gradient.
func (p *Parameter[B]) ZeroGrad() { p.tensor.ZeroGrad() }
