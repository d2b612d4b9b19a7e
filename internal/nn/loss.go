package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Reduction selects how a per-element loss collapses to the reported
// value.
type Reduction int

const (
	// ReductionMean averages the per-element losses. This is the default.
	ReductionMean Reduction = iota
	// ReductionSum sums the per-element losses.
	ReductionSum
	// ReductionNone returns the per-element losses unreduced.
	ReductionNone
)

// String returns a human-readable reduction name.
func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionSum:
		return "sum"
	case ReductionNone:
		return "none"
	default:
		return "unknown"
	}
}

func reduce[B tensor.Backend](loss *tensor.Tensor[float32, B], r Reduction) *tensor.Tensor[float32, B] {
	switch r {
	case ReductionMean:
		return loss.Mean()
	case ReductionSum:
		return loss.Sum()
	case ReductionNone:
		return loss
	default:
		panic(fmt.Sprintf("nn: unknown reduction %d", r))
	}
}

// MSELoss is the mean squared error between predictions and targets.
type MSELoss[B tensor.Backend] struct {
	reduction Reduction
}

// NewMSELoss creates an MSE criterion.
func NewMSELoss[B tensor.Backend](reduction Reduction) *MSELoss[B] {
	return &MSELoss[B]{reduction: reduction}
}

// Forward computes (pred - target)^2 under the configured reduction.
func (l *MSELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("nn: mse shape mismatch %v vs %v", pred.Shape(), target.Shape()))
	}
	d := pred.Sub(target)
	return reduce(d.Mul(d), l.reduction)
}

// CrossEntropyLoss combines softmax and negative log likelihood over
// [N, C] logits with [N] integer class targets.
type CrossEntropyLoss[B tensor.Backend] struct {
	reduction Reduction
}

// NewCrossEntropyLoss creates a cross entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend](reduction Reduction) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{reduction: reduction}
}

// Forward computes -log softmax(logits)[target] per row.
func (l *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], target *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("nn: cross entropy expects [N, C] logits, got %v", shape))
	}
	if len(target.Shape()) != 1 || target.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("nn: cross entropy expects [%d] targets, got %v", shape[0], target.Shape()))
	}

	logProbs := logits.Softmax(-1).Log()
	picked := logProbs.Gather(1, target.Unsqueeze(1))
	loss := picked.Squeeze(1).Neg()
	return reduce(loss, l.reduction)
}

// L1Loss is the mean absolute error between predictions and targets.
type L1Loss[B tensor.Backend] struct {
	reduction Reduction
}

// NewL1Loss creates an L1 criterion.
func NewL1Loss[B tensor.Backend](reduction Reduction) *L1Loss[B] {
	return &L1Loss[B]{reduction: reduction}
}

// Forward computes |pred - target| under the configured reduction.
// The absolute value is relu(d) + relu(-d), whose gradient is the sign
// of d (zero at d = 0).
func (l *L1Loss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("nn: l1 shape mismatch %v vs %v", pred.Shape(), target.Shape()))
	}
	d := pred.Sub(target)
	return reduce(d.ReLU().Add(d.Neg().ReLU()), l.reduction)
}

// BCELoss is binary cross entropy over probabilities in (0, 1).
type BCELoss[B tensor.Backend] struct {
	reduction Reduction
}

// NewBCELoss creates a binary cross entropy criterion. Inputs are
// probabilities, not logits.
func NewBCELoss[B tensor.Backend](reduction Reduction) *BCELoss[B] {
	return &BCELoss[B]{reduction: reduction}
}

// Forward computes -(t*log(p) + (1-t)*log(1-p)).
func (l *BCELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("nn: bce shape mismatch %v vs %v", pred.Shape(), target.Shape()))
	}
	one := onesLike(pred)
	pos := target.Mul(pred.Log())
	neg := one.Sub(target).Mul(one.Sub(pred).Log())
	return reduce(pos.Add(neg).Neg(), l.reduction)
}

// NLLLoss is the negative log likelihood over [N, C] log-probabilities
// with [N] integer class targets.
type NLLLoss[B tensor.Backend] struct {
	reduction Reduction
}

// NewNLLLoss creates an NLL criterion. Inputs are log-probabilities.
func NewNLLLoss[B tensor.Backend](reduction Reduction) *NLLLoss[B] {
	return &NLLLoss[B]{reduction: reduction}
}

// Forward picks -logProbs[target] per row.
func (l *NLLLoss[B]) Forward(logProbs *tensor.Tensor[float32, B], target *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	shape := logProbs.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("nn: nll expects [N, C] log-probabilities, got %v", shape))
	}
	picked := logProbs.Gather(1, target.Unsqueeze(1))
	return reduce(picked.Squeeze(1).Neg(), l.reduction)
}
