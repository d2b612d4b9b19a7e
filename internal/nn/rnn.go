package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Recurrent cells process one timestep at a time. Each cell exposes a
// Step method taking the previous hidden state; Forward runs a single
// step from a zero hidden state so cells compose inside Sequential.

// RNNCell is a vanilla tanh recurrence: h' = tanh(x W_ih^T + b_ih + h W_hh^T + b_hh).
type RNNCell[B tensor.Backend] struct {
	*Base[B]

	ih *Linear[B]
	hh *Linear[B]

	inputSize  int
	hiddenSize int
}

// NewRNNCell creates a tanh recurrent cell.
func NewRNNCell[B tensor.Backend](b B, inputSize, hiddenSize int) *RNNCell[B] {
	c := &RNNCell[B]{
		Base:       NewBase[B](),
		ih:         NewLinear(b, inputSize, hiddenSize, true),
		hh:         NewLinear(b, hiddenSize, hiddenSize, true),
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
	}
	c.RegisterModule("ih", c.ih)
	c.RegisterModule("hh", c.hh)
	return c
}

// Step advances the recurrence by one timestep. Input is [N, inputSize],
// hidden is [N, hiddenSize].
func (c *RNNCell[B]) Step(x, hidden *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.ih.Forward(x).Add(c.hh.Forward(hidden)).Tanh()
}

// Forward runs one step from a zero hidden state.
func (c *RNNCell[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.Step(x, c.zeroHidden(x))
}

// HiddenSize returns the width of the hidden state.
func (c *RNNCell[B]) HiddenSize() int { return c.hiddenSize }

func (c *RNNCell[B]) zeroHidden(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return zeroState(x, c.hiddenSize)
}

// LSTMCell is a long short-term memory cell with input, forget, cell and
// output gates.
type LSTMCell[B tensor.Backend] struct {
	*Base[B]

	ih *Linear[B] // [4*hidden] gates from input
	hh *Linear[B] // [4*hidden] gates from hidden

	inputSize  int
	hiddenSize int
}

// NewLSTMCell creates an LSTM cell.
func NewLSTMCell[B tensor.Backend](b B, inputSize, hiddenSize int) *LSTMCell[B] {
	c := &LSTMCell[B]{
		Base:       NewBase[B](),
		ih:         NewLinear(b, inputSize, 4*hiddenSize, true),
		hh:         NewLinear(b, hiddenSize, 4*hiddenSize, true),
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
	}
	c.RegisterModule("ih", c.ih)
	c.RegisterModule("hh", c.hh)
	return c
}

// Step advances one timestep, returning the new hidden and cell states.
// Gate order matches the weight layout: input, forget, cell, output.
func (c *LSTMCell[B]) Step(x, hidden, cell *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	gates := c.ih.Forward(x).Add(c.hh.Forward(hidden)).Chunk(4, 1)
	i := gates[0].Sigmoid()
	f := gates[1].Sigmoid()
	g := gates[2].Tanh()
	o := gates[3].Sigmoid()

	newCell := f.Mul(cell).Add(i.Mul(g))
	newHidden := o.Mul(newCell.Tanh())
	return newHidden, newCell
}

// Forward runs one step from zero hidden and cell states, returning the
// hidden state.
func (c *LSTMCell[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	h, _ := c.Step(x, zeroState(x, c.hiddenSize), zeroState(x, c.hiddenSize))
	return h
}

// HiddenSize returns the width of the hidden and cell states.
func (c *LSTMCell[B]) HiddenSize() int { return c.hiddenSize }

// GRUCell is a gated recurrent unit cell.
type GRUCell[B tensor.Backend] struct {
	*Base[B]

	ih *Linear[B] // [3*hidden] gates from input: reset, update, new
	hh *Linear[B] // [3*hidden] gates from hidden

	inputSize  int
	hiddenSize int
}

// NewGRUCell creates a GRU cell.
func NewGRUCell[B tensor.Backend](b B, inputSize, hiddenSize int) *GRUCell[B] {
	c := &GRUCell[B]{
		Base:       NewBase[B](),
		ih:         NewLinear(b, inputSize, 3*hiddenSize, true),
		hh:         NewLinear(b, hiddenSize, 3*hiddenSize, true),
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
	}
	c.RegisterModule("ih", c.ih)
	c.RegisterModule("hh", c.hh)
	return c
}

// Step advances one timestep. The candidate state applies the reset gate
// to the hidden contribution before the tanh, matching the standard
// formulation.
func (c *GRUCell[B]) Step(x, hidden *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	xg := c.ih.Forward(x).Chunk(3, 1)
	hg := c.hh.Forward(hidden).Chunk(3, 1)

	r := xg[0].Add(hg[0]).Sigmoid()
	z := xg[1].Add(hg[1]).Sigmoid()
	n := xg[2].Add(r.Mul(hg[2])).Tanh()

	// h' = (1 - z) * n + z * h
	one := onesLike(z)
	return one.Sub(z).Mul(n).Add(z.Mul(hidden))
}

// Forward runs one step from a zero hidden state.
func (c *GRUCell[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.Step(x, zeroState(x, c.hiddenSize))
}

// HiddenSize returns the width of the hidden state.
func (c *GRUCell[B]) HiddenSize() int { return c.hiddenSize }

func zeroState[B tensor.Backend](x *tensor.Tensor[float32, B], hiddenSize int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("nn: recurrent cells expect [N, features], got %v", shape))
	}
	return Zeros(x.Backend(), shape[0], hiddenSize)
}

func onesLike[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return Ones(x.Backend(), x.Shape()...)
}
