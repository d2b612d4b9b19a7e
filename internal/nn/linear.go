package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Linear applies y = x @ W^T + b over the last dimension of the input.
type Linear[B tensor.Backend] struct {
	*Base[B]

	weight *Parameter[B] // [outFeatures, inFeatures]
	bias   *Parameter[B] // [outFeatures], nil when disabled

	inFeatures  int
	outFeatures int
}

// NewLinear creates a fully connected layer. The weight is initialized
// with Xavier uniform, the bias with zeros.
func NewLinear[B tensor.Backend](b B, inFeatures, outFeatures int, withBias bool) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("nn: invalid linear dimensions %dx%d", inFeatures, outFeatures))
	}
	l := &Linear[B]{
		Base:        NewBase[B](),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
	l.weight = NewParameter("weight", XavierUniform(b, inFeatures, outFeatures, outFeatures, inFeatures))
	l.RegisterParameter("weight", l.weight)
	if withBias {
		l.bias = NewParameter("bias", Zeros(b, outFeatures))
		l.RegisterParameter("bias", l.bias)
	}
	return l
}

// Forward accepts [..., inFeatures] and returns [..., outFeatures].
// Inputs of rank above 2 are flattened to a matrix for the matmul and
// restored afterwards.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) < 1 || shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("nn: linear expects trailing dimension %d, got shape %v", l.inFeatures, shape))
	}

	flat := x
	if len(shape) != 2 {
		rows := x.NumElements() / l.inFeatures
		flat = x.Reshape(rows, l.inFeatures)
	}

	y := flat.MatMul(l.weight.Tensor().T())
	if l.bias != nil {
		y = y.Add(l.bias.Tensor())
	}

	if len(shape) != 2 {
		outShape := append(shape[:len(shape)-1].Clone(), l.outFeatures)
		y = y.Reshape(outShape...)
	}
	return y
}

// Weight returns the [outFeatures, inFeatures] weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter, or nil when the layer has none.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the expected trailing input dimension.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the produced trailing output dimension.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }
