// Copyright 2025 The Warp Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/backend/cpu"
	"github.com/warp-ml/warp/nn"
	"github.com/warp-ml/warp/tensor"
)

type mlp struct {
	*nn.Base[*cpu.Backend]
	hidden *nn.Linear[*cpu.Backend]
	out    *nn.Linear[*cpu.Backend]
}

func newMLP(b *cpu.Backend) *mlp {
	m := &mlp{
		Base:   nn.NewBase[*cpu.Backend](),
		hidden: nn.NewLinear(b, 4, 8, true),
		out:    nn.NewLinear(b, 8, 2, true),
	}
	m.RegisterModule("hidden", m.hidden)
	m.RegisterModule("out", m.out)
	return m
}

func (m *mlp) Forward(x *tensor.Tensor[float32, *cpu.Backend]) *tensor.Tensor[float32, *cpu.Backend] {
	return m.out.Forward(m.hidden.Forward(x).ReLU())
}

func TestCustomModuleThroughPublicAPI(t *testing.T) {
	b := cpu.New()
	m := newMLP(b)

	assert.Len(t, m.Parameters(), 4)

	x, err := tensor.FromSlice(make([]float32, 3*4), tensor.Shape{3, 4}, b)
	require.NoError(t, err)

	y := m.Forward(x)
	assert.True(t, y.Shape().Equal(tensor.Shape{3, 2}))
}

func TestSequentialStateDictNames(t *testing.T) {
	b := cpu.New()
	seq := nn.NewSequential[*cpu.Backend](
		nn.NewLinear(b, 2, 2, true),
		nn.NewReLU[*cpu.Backend](),
	)

	state := seq.StateDict()
	assert.Contains(t, state, "0.weight")
	assert.Contains(t, state, "0.bias")
	assert.Len(t, state, 2)
}
