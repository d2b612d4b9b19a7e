// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation keeps handles to its forward inputs and
// output and knows how to turn the output gradient into input gradients.
package ops

import "github.com/warp-ml/warp/internal/tensor"

// Operation is one recorded node of the computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output
	// gradient. The returned slice is position-aligned with Inputs();
	// a nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the forward output tensor.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an operation with several outputs (Chunk). The
// tape gathers gradients for all outputs before invoking BackwardMulti;
// outputs whose gradient never materialized arrive as zero tensors.
type MultiOutputOperation interface {
	Operation

	// Outputs returns every forward output tensor.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes input gradients from all output gradients.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}

// op carries the input/output bookkeeping shared by every operation.
type op struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func (o *op) Inputs() []*tensor.RawTensor { return o.inputs }
func (o *op) Output() *tensor.RawTensor   { return o.output }
