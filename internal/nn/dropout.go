package nn

import (
	"fmt"
	"math/rand"

	"github.com/warp-ml/warp/internal/tensor"
)

// Dropout zeroes elements with probability p during training and scales
// the survivors by 1/(1-p), so the expected activation is unchanged. In
// evaluation mode it is the identity.
type Dropout[B tensor.Backend] struct {
	*Base[B]

	p       float32
	inPlace bool
}

// NewDropout creates a dropout layer. p must be in [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("nn: dropout probability %v outside [0, 1)", p))
	}
	return &Dropout[B]{Base: NewBase[B](), p: p}
}

// NewDropoutInPlace creates a dropout layer that overwrites its input
// buffer instead of allocating. The in-place form cannot participate in
// gradient tracking, so Forward panics on inputs that require gradients.
func NewDropoutInPlace[B tensor.Backend](p float32) *Dropout[B] {
	d := NewDropout[B](p)
	d.inPlace = true
	return d
}

func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.Training() || d.p == 0 {
		return x
	}

	scale := 1 / (1 - d.p)
	if d.inPlace {
		if x.RequiresGrad() {
			panic("nn: in-place dropout on a tensor that requires gradients")
		}
		data := x.Data()
		for i := range data {
			if rand.Float32() < d.p {
				data[i] = 0
			} else {
				data[i] *= scale
			}
		}
		return x
	}

	mask := make([]float32, x.NumElements())
	for i := range mask {
		if rand.Float32() >= d.p {
			mask[i] = scale
		}
	}
	m := fromSlice(x.Backend(), mask, x.Shape())
	return x.Mul(m)
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 { return d.p }
