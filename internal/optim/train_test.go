package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/autodiff"
	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/nn"
	"github.com/warp-ml/warp/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.Backend]

// TestLinearRegressionConverges trains y = 2x + 1 end to end: forward
// through a Linear layer, backward through the tape, update with SGD.
func TestLinearRegressionConverges(t *testing.T) {
	b := autodiff.New(cpu.New())
	model := nn.NewLinear[adBackend](b, 1, 1, true)
	criterion := nn.NewMSELoss[adBackend](nn.ReductionMean)
	opt := NewSGD(model.Parameters(), SGDConfig{LR: 0.1}, b)

	xs := []float32{-1, 0, 1, 2}
	ys := []float32{-1, 1, 3, 5}
	x, err := tensor.FromSlice[float32, adBackend](xs, tensor.Shape{4, 1}, b)
	require.NoError(t, err)
	target, err := tensor.FromSlice[float32, adBackend](ys, tensor.Shape{4, 1}, b)
	require.NoError(t, err)

	b.Tape().StartRecording()

	var lastLoss float32
	for i := 0; i < 200; i++ {
		pred := model.Forward(x)
		loss := criterion.Forward(pred, target)
		lastLoss = loss.Item()

		grads, err := autodiff.Backward(loss, b)
		require.NoError(t, err)
		opt.Step(grads)
		opt.ZeroGrad()
	}

	assert.Less(t, lastLoss, float32(1e-3))
	assert.InDelta(t, 2.0, model.Weight().Tensor().Data()[0], 0.05)
	assert.InDelta(t, 1.0, model.Bias().Tensor().Data()[0], 0.05)
}
