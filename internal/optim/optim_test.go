package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/tensor"
)

func newParam(t *testing.T, b *cpu.Backend, data []float32) *nn.Parameter[*cpu.Backend] {
	t.Helper()
	ten, err := tensor.FromSlice[float32, *cpu.Backend](data, tensor.Shape{len(data)}, b)
	require.NoError(t, err)
	return nn.NewParameter("w", ten)
}

func gradsOf(t *testing.T, b *cpu.Backend, param *nn.Parameter[*cpu.Backend], data []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	g, err := tensor.FromSlice[float32, *cpu.Backend](data, tensor.Shape{len(data)}, b)
	require.NoError(t, err)
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): g.Raw()}
}

func TestSGDStep(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1, 2, 3})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 0.1}, b)

	opt.Step(gradsOf(t, b, param, []float32{1, 1, 1}))
	assert.InDeltaSlice(t, []float32{0.9, 1.9, 2.9}, param.Tensor().Data(), 1e-6)
}

func TestSGDMomentum(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{0})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 1, Momentum: 0.5}, b)

	// v1 = 1, p = -1; v2 = 0.5 + 1 = 1.5, p = -2.5
	opt.Step(gradsOf(t, b, param, []float32{1}))
	assert.InDelta(t, -1.0, param.Tensor().Data()[0], 1e-6)

	opt.Step(gradsOf(t, b, param, []float32{1}))
	assert.InDelta(t, -2.5, param.Tensor().Data()[0], 1e-6)
}

func TestSGDWeightDecay(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{2})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 0.1, WeightDecay: 0.5}, b)

	// effective grad = 0 + 0.5*2 = 1, p = 2 - 0.1 = 1.9
	opt.Step(gradsOf(t, b, param, []float32{0}))
	assert.InDelta(t, 1.9, param.Tensor().Data()[0], 1e-6)
}

func TestSGDSkipsParametersWithoutGradient(t *testing.T) {
	b := cpu.New()
	tracked := newParam(t, b, []float32{1})
	idle := newParam(t, b, []float32{5})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{tracked, idle}, SGDConfig{LR: 0.5}, b)

	opt.Step(gradsOf(t, b, tracked, []float32{1}))
	assert.InDelta(t, 0.5, tracked.Tensor().Data()[0], 1e-6)
	assert.Equal(t, float32(5), idle.Tensor().Data()[0])
}

func TestAdamFirstStep(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewAdam([]*nn.Parameter[*cpu.Backend]{param}, AdamConfig{LR: 0.1}, b)

	// After bias correction the first update is lr * g / (|g| + eps).
	opt.Step(gradsOf(t, b, param, []float32{2}))
	assert.InDelta(t, 0.9, param.Tensor().Data()[0], 1e-4)
	assert.Equal(t, 1, opt.Timestep())
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{5})
	opt := NewAdam([]*nn.Parameter[*cpu.Backend]{param}, AdamConfig{LR: 0.5}, b)

	// Minimize f(x) = x^2 with analytic gradient 2x.
	for i := 0; i < 200; i++ {
		x := param.Tensor().Data()[0]
		opt.Step(gradsOf(t, b, param, []float32{2 * x}))
	}
	assert.InDelta(t, 0.0, param.Tensor().Data()[0], 0.05)
}

func TestSGDStateDictRoundTrip(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1, 2})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 0.1, Momentum: 0.9}, b)
	opt.Step(gradsOf(t, b, param, []float32{1, -1}))

	state := opt.StateDict()
	require.Contains(t, state, "velocity.0")

	// A fresh optimizer seeded with a snapshot of the state takes the
	// same next step.
	snapshot := map[string]*tensor.RawTensor{"velocity.0": state["velocity.0"].Clone()}
	param2 := newParam(t, b, param.Tensor().Data())
	opt2 := NewSGD([]*nn.Parameter[*cpu.Backend]{param2}, SGDConfig{LR: 0.1, Momentum: 0.9}, b)
	require.NoError(t, opt2.LoadStateDict(snapshot))

	opt.Step(gradsOf(t, b, param, []float32{1, -1}))
	opt2.Step(gradsOf(t, b, param2, []float32{1, -1}))
	assert.InDeltaSlice(t, param.Tensor().Data(), param2.Tensor().Data(), 1e-6)
}

func TestAdamStateDictRoundTrip(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{3})
	opt := NewAdam([]*nn.Parameter[*cpu.Backend]{param}, AdamConfig{LR: 0.1}, b)
	opt.Step(gradsOf(t, b, param, []float32{1}))
	opt.Step(gradsOf(t, b, param, []float32{1}))

	state := opt.StateDict()
	require.Contains(t, state, "m.0")
	require.Contains(t, state, "v.0")
	require.Contains(t, state, "t")

	param2 := newParam(t, b, []float32{3})
	opt2 := NewAdam([]*nn.Parameter[*cpu.Backend]{param2}, AdamConfig{LR: 0.1}, b)
	require.NoError(t, opt2.LoadStateDict(state))
	assert.Equal(t, 2, opt2.Timestep())
}

func TestAdamRejectsMismatchedState(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1, 2})
	opt := NewAdam([]*nn.Parameter[*cpu.Backend]{param}, AdamConfig{}, b)

	bad, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.Error(t, opt.LoadStateDict(map[string]*tensor.RawTensor{"m.0": bad}))
}

func TestStepLR(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 1}, b)
	sched := NewStepLR(opt, 2, 0.1)

	sched.Step()
	assert.InDelta(t, 1.0, sched.LastLR(), 1e-6)
	sched.Step()
	assert.InDelta(t, 0.1, sched.LastLR(), 1e-6)
	sched.Step()
	assert.InDelta(t, 0.1, sched.LastLR(), 1e-6)
	sched.Step()
	assert.InDelta(t, 0.01, sched.LastLR(), 1e-6)
}

func TestExponentialLR(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 2}, b)
	sched := NewExponentialLR(opt, 0.5)

	sched.Step()
	assert.InDelta(t, 1.0, opt.LR(), 1e-6)
	sched.Step()
	assert.InDelta(t, 0.5, opt.LR(), 1e-6)
}

func TestCosineAnnealingLR(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{LR: 1}, b)
	sched := NewCosineAnnealingLR(opt, 10, 0)

	sched.Step()
	first := opt.LR()
	assert.Greater(t, first, float32(0.9))

	for i := 0; i < 4; i++ {
		sched.Step()
	}
	assert.InDelta(t, 0.5, opt.LR(), 1e-6) // halfway point

	for i := 0; i < 5; i++ {
		sched.Step()
	}
	assert.InDelta(t, 0.0, opt.LR(), 1e-6)

	sched.Step() // past the horizon stays at etaMin
	assert.InDelta(t, 0.0, opt.LR(), 1e-6)
}

func TestZeroGradClearsParameters(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	g, err := tensor.FromSlice[float32, *cpu.Backend]([]float32{7}, tensor.Shape{1}, b)
	require.NoError(t, err)
	param.Tensor().AccumulateGrad(g.Raw())
	require.NotNil(t, param.Grad())

	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{param}, SGDConfig{}, b)
	opt.ZeroGrad()
	assert.Nil(t, param.Grad())
}
