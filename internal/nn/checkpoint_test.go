package nn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-ml/warp/internal/backend/cpu"
	"github.com/warp-ml/warp/internal/tensor"
)

// stubOptimizer records a single named buffer, standing in for the optim
// package which cannot be imported here.
type stubOptimizer struct {
	state map[string]*tensor.RawTensor
}

func (s *stubOptimizer) Name() string { return "Stub" }

func (s *stubOptimizer) StateDict() map[string]*tensor.RawTensor { return s.state }

func (s *stubOptimizer) LoadStateDict(state map[string]*tensor.RawTensor) error {
	s.state = state
	return nil
}

func TestSaveLoadModel(t *testing.T) {
	b := cpu.New()
	path := filepath.Join(t.TempDir(), "model.warp")

	src := NewSequential[*cpu.Backend](NewLinear(b, 3, 2, true))
	require.NoError(t, SaveModel(path, src, "Sequential"))

	dst := NewSequential[*cpu.Backend](NewLinear(b, 3, 2, true))
	require.NoError(t, LoadModel(path, dst, tensor.CPU))

	assert.Equal(t, src.Parameters()[0].Tensor().Data(), dst.Parameters()[0].Tensor().Data())
	assert.Equal(t, src.Parameters()[1].Tensor().Data(), dst.Parameters()[1].Tensor().Data())
}

func TestCheckpointRoundTrip(t *testing.T) {
	b := cpu.New()
	path := filepath.Join(t.TempDir(), "ckpt.warp")

	model := NewSequential[*cpu.Backend](NewLinear(b, 3, 2, true))
	velocity, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	velocity.AsFloat32()[0] = 0.5
	opt := &stubOptimizer{state: map[string]*tensor.RawTensor{"velocity.0": velocity}}

	require.NoError(t, SaveCheckpoint(path, &Checkpoint[*cpu.Backend]{
		Model:     model,
		Optimizer: opt,
		Epoch:     3,
		Step:      900,
		Loss:      0.25,
		Metadata:  map[string]string{"run": "exp-1"},
	}))

	restoredModel := NewSequential[*cpu.Backend](NewLinear(b, 3, 2, true))
	restoredOpt := &stubOptimizer{}
	restored := &Checkpoint[*cpu.Backend]{Model: restoredModel, Optimizer: restoredOpt}
	require.NoError(t, LoadCheckpoint(path, restored, tensor.CPU))

	assert.Equal(t, 3, restored.Epoch)
	assert.Equal(t, int64(900), restored.Step)
	assert.Equal(t, 0.25, restored.Loss)
	assert.Equal(t, "exp-1", restored.Metadata["run"])

	assert.Equal(t,
		model.Parameters()[0].Tensor().Data(),
		restoredModel.Parameters()[0].Tensor().Data())

	require.Contains(t, restoredOpt.state, "velocity.0")
	assert.Equal(t, float32(0.5), restoredOpt.state["velocity.0"].AsFloat32()[0])
}

func TestCheckpointWithoutOptimizer(t *testing.T) {
	b := cpu.New()
	path := filepath.Join(t.TempDir(), "weights.warp")

	model := NewSequential[*cpu.Backend](NewLinear(b, 2, 2, false))
	require.NoError(t, SaveCheckpoint(path, &Checkpoint[*cpu.Backend]{Model: model, Epoch: 1}))

	restored := &Checkpoint[*cpu.Backend]{Model: NewSequential[*cpu.Backend](NewLinear(b, 2, 2, false))}
	require.NoError(t, LoadCheckpoint(path, restored, tensor.CPU))
	assert.Equal(t, 1, restored.Epoch)
}
