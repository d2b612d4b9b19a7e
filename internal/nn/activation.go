package nn

import (
	"math"

	"github.com/warp-ml/warp/internal/tensor"
)

// Activation layers carry no parameters; they exist so nonlinearities can
// be placed inside Sequential alongside parameterized layers.

// ReLU clamps negative values to zero.
type ReLU[B tensor.Backend] struct{ *Base[B] }

func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{Base: NewBase[B]()} }

func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU()
}

// Sigmoid applies the logistic function.
type Sigmoid[B tensor.Backend] struct{ *Base[B] }

func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return &Sigmoid[B]{Base: NewBase[B]()} }

func (s *Sigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Sigmoid()
}

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{ *Base[B] }

func NewTanh[B tensor.Backend]() *Tanh[B] { return &Tanh[B]{Base: NewBase[B]()} }

func (t *Tanh[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Tanh()
}

// Softmax normalizes along a fixed dimension.
type Softmax[B tensor.Backend] struct {
	*Base[B]
	dim int
}

func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return &Softmax[B]{Base: NewBase[B](), dim: dim}
}

func (s *Softmax[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Softmax(s.dim)
}

// GELU applies the tanh approximation of the Gaussian error linear unit.
type GELU[B tensor.Backend] struct{ *Base[B] }

func NewGELU[B tensor.Backend]() *GELU[B] { return &GELU[B]{Base: NewBase[B]()} }

func (g *GELU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3)))
	c := float32(math.Sqrt(2.0 / math.Pi))
	inner := x.Add(x.Pow(3).MulScalar(tensor.NewScalar(float32(0.044715))))
	t := inner.MulScalar(tensor.NewScalar(c)).Tanh()
	return x.Mul(t.AddScalar(tensor.NewScalar(float32(1)))).MulScalar(tensor.NewScalar(float32(0.5)))
}

// LeakyReLU keeps a small slope for negative values.
type LeakyReLU[B tensor.Backend] struct {
	*Base[B]
	slope float32
}

func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{Base: NewBase[B](), slope: slope}
}

func (l *LeakyReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU().Add(x.Neg().ReLU().MulScalar(tensor.NewScalar(-l.slope)))
}
