package autodiff

import (
	"github.com/warp-ml/warp/internal/autodiff/ops"
	"github.com/warp-ml/warp/internal/tensor"
)

// GradientTape records operations during the forward pass and replays them
// in reverse to compute gradients.
//
// A tape is single-goroutine state: recording a forward pass from several
// goroutines, or running backward concurrently with a forward pass, is not
// supported.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
	noGrad     int
	freed      bool
}

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are currently captured, taking
// active no-grad scopes into account.
func (t *GradientTape) IsRecording() bool {
	return t.recording && t.noGrad == 0
}

// NoGrad opens a scope in which no operations are recorded, regardless of
// the recording flag. Scopes nest; the returned func closes the innermost
// one and must be called (use defer).
func (t *GradientTape) NoGrad() func() {
	t.noGrad++
	return func() { t.noGrad-- }
}

// Record appends an operation when recording is active. Recording onto a
// tape whose graph was freed starts a fresh graph.
func (t *GradientTape) Record(op ops.Operation) {
	if !t.IsRecording() {
		return
	}
	if t.freed {
		t.operations = t.operations[:0]
		t.freed = false
	}
	t.operations = append(t.operations, op)
}

// Clear drops all recorded operations and resets the freed state. The
// recording flag is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
	t.freed = false
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward seeds the operation that produced root with seed, root's output
// gradient, then walks the tape in reverse from that operation and returns
// the accumulated gradient of every tensor the graph touched. Tensors used
// more than once have their gradients summed. Operations recorded after
// root (a tracked metric, a second head) are not part of root's graph and
// receive no gradient.
//
// Unless retainGraph is set, the walk frees the graph: a second Backward
// fails with ErrGraphFreed until new operations are recorded or the tape is
// cleared.
func (t *GradientTape) Backward(root, seed *tensor.RawTensor, backend tensor.Backend, retainGraph bool) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	if t.freed {
		return nil, tensor.ErrGraphFreed
	}

	rootIdx := t.outputIndex(root)
	if rootIdx < 0 {
		return nil, tensor.ErrNotInGraph
	}

	// Gradient math must not extend the graph being differentiated.
	defer t.NoGrad()()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[root] = seed

	for i := rootIdx; i >= 0; i-- {
		op := t.operations[i]
		inputGrads := t.inputGrads(op, grads, backend)
		if inputGrads == nil {
			continue
		}
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	if !retainGraph {
		t.operations = t.operations[:0]
		t.freed = true
	}
	return grads, nil
}

// outputIndex returns the index of the most recent operation that produced
// r, or -1 when no recorded operation did.
func (t *GradientTape) outputIndex(r *tensor.RawTensor) int {
	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		if op.Output() == r {
			return i
		}
		if multi, ok := op.(ops.MultiOutputOperation); ok {
			for _, out := range multi.Outputs() {
				if out == r {
					return i
				}
			}
		}
	}
	return -1
}

// inputGrads dispatches to the multi-output path when needed. Returns nil
// when no gradient reaches the operation.
func (t *GradientTape) inputGrads(
	op ops.Operation,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) []*tensor.RawTensor {
	if multi, ok := op.(ops.MultiOutputOperation); ok {
		return t.multiOutputGrads(multi, grads, backend)
	}
	outputGrad, ok := grads[op.Output()]
	if !ok {
		return nil
	}
	return op.Backward(outputGrad, backend)
}

// multiOutputGrads collects gradients for every output of a multi-output
// operation, substituting zeros for outputs no gradient reached.
func (t *GradientTape) multiOutputGrads(
	op ops.MultiOutputOperation,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) []*tensor.RawTensor {
	outputs := op.Outputs()
	outputGrads := make([]*tensor.RawTensor, len(outputs))
	any := false
	for i, out := range outputs {
		if g, ok := grads[out]; ok {
			outputGrads[i] = g
			any = true
		}
	}
	if !any {
		return nil
	}
	for i, out := range outputs {
		if outputGrads[i] == nil {
			zero, err := tensor.NewRaw(out.Shape(), out.DType(), backend.Device())
			if err != nil {
				continue
			}
			outputGrads[i] = zero
		}
	}
	return op.BackwardMulti(outputGrads, backend)
}
