package nn

import (
	"fmt"
	"strings"

	"github.com/warp-ml/warp/internal/serialization"
	"github.com/warp-ml/warp/internal/tensor"
)

// OptimizerState is the slice of the optimizer surface that
// checkpointing needs. Declared here so the nn package does not depend
// on the optim package.
type OptimizerState interface {
	Name() string
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// optimizerPrefix namespaces optimizer entries inside a combined
// checkpoint state dict.
const optimizerPrefix = "optimizer."

// Checkpoint bundles a model with its training state for persistence.
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]
	Optimizer OptimizerState // nil saves weights only
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]string
}

// SaveModel writes just the module's parameters and buffers.
func SaveModel[B tensor.Backend](path string, model Module[B], modelType string) error {
	w, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteStateDict(model.Tree().StateDict(), modelType, nil)
}

// LoadModel restores a module's parameters and buffers in place.
func LoadModel[B tensor.Backend](path string, model Module[B], device tensor.Device) error {
	r, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	state, err := r.ReadStateDict(device)
	if err != nil {
		return err
	}
	return model.Tree().LoadStateDict(state)
}

// SaveCheckpoint writes model weights, optimizer buffers and training
// progress into one container. Optimizer entries are stored under the
// "optimizer." prefix so the model's own keys stay unqualified.
func SaveCheckpoint[B tensor.Backend](path string, ckpt *Checkpoint[B]) error {
	if ckpt == nil || ckpt.Model == nil {
		return fmt.Errorf("nn: checkpoint requires a model")
	}

	combined := ckpt.Model.Tree().StateDict()
	meta := serialization.CheckpointMeta{
		IsCheckpoint: true,
		Epoch:        ckpt.Epoch,
		Step:         ckpt.Step,
		Loss:         ckpt.Loss,
	}
	if ckpt.Optimizer != nil {
		meta.OptimizerType = ckpt.Optimizer.Name()
		for name, raw := range ckpt.Optimizer.StateDict() {
			key := optimizerPrefix + name
			if _, exists := combined[key]; exists {
				return fmt.Errorf("nn: optimizer state key %q collides with a model key", key)
			}
			combined[key] = raw
		}
	}

	w, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()

	header := serialization.Header{
		ModelType:      fmt.Sprintf("%T", ckpt.Model),
		Metadata:       ckpt.Metadata,
		CheckpointMeta: &meta,
	}
	return w.WriteStateDictWithHeader(combined, header)
}

// LoadCheckpoint restores model and optimizer state from a checkpoint
// and fills in the training progress fields. The optimizer may be nil
// when only the weights are wanted.
func LoadCheckpoint[B tensor.Backend](path string, ckpt *Checkpoint[B], device tensor.Device) error {
	if ckpt == nil || ckpt.Model == nil {
		return fmt.Errorf("nn: checkpoint requires a model")
	}

	r, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	combined, err := r.ReadStateDict(device)
	if err != nil {
		return err
	}

	modelState := make(map[string]*tensor.RawTensor)
	optState := make(map[string]*tensor.RawTensor)
	for name, raw := range combined {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := ckpt.Model.Tree().LoadStateDict(modelState); err != nil {
		return err
	}
	if ckpt.Optimizer != nil {
		if err := ckpt.Optimizer.LoadStateDict(optState); err != nil {
			return err
		}
	}

	if meta := r.CheckpointMeta(); meta != nil {
		ckpt.Epoch = meta.Epoch
		ckpt.Step = meta.Step
		ckpt.Loss = meta.Loss
	}
	ckpt.Metadata = r.Header().Metadata
	return nil
}
