package nn

import (
	"fmt"
	"math"

	"github.com/warp-ml/warp/internal/tensor"
)

// MultiheadAttention implements scaled dot-product attention with
// numHeads parallel heads over [N, L, embedDim] sequences.
type MultiheadAttention[B tensor.Backend] struct {
	*Base[B]

	query   *Linear[B]
	key     *Linear[B]
	value   *Linear[B]
	out     *Linear[B]
	dropout *Dropout[B]

	embedDim int
	numHeads int
	headDim  int
}

// NewMultiheadAttention creates an attention block. embedDim must be
// divisible by numHeads. dropoutP applies to the attention weights; pass
// 0 to disable.
func NewMultiheadAttention[B tensor.Backend](b B, embedDim, numHeads int, dropoutP float32) *MultiheadAttention[B] {
	if numHeads <= 0 || embedDim <= 0 || embedDim%numHeads != 0 {
		panic(fmt.Sprintf("nn: embedDim %d not divisible by numHeads %d", embedDim, numHeads))
	}
	a := &MultiheadAttention[B]{
		Base:     NewBase[B](),
		query:    NewLinear(b, embedDim, embedDim, true),
		key:      NewLinear(b, embedDim, embedDim, true),
		value:    NewLinear(b, embedDim, embedDim, true),
		out:      NewLinear(b, embedDim, embedDim, true),
		dropout:  NewDropout[B](dropoutP),
		embedDim: embedDim,
		numHeads: numHeads,
		headDim:  embedDim / numHeads,
	}
	a.RegisterModule("query", a.query)
	a.RegisterModule("key", a.key)
	a.RegisterModule("value", a.value)
	a.RegisterModule("out", a.out)
	a.RegisterModule("dropout", a.dropout)
	return a
}

// Attend computes attention with separate query, key and value inputs of
// shape [N, L, embedDim]. mask, when non-nil, is added to the attention
// scores before the softmax and must broadcast against
// [N, numHeads, Lq, Lk]; masked positions carry large negative values.
func (a *MultiheadAttention[B]) Attend(query, key, value, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	n, lq := query.Shape()[0], query.Shape()[1]
	lk := key.Shape()[1]

	q := a.splitHeads(a.query.Forward(query), n, lq)
	k := a.splitHeads(a.key.Forward(key), n, lk)
	v := a.splitHeads(a.value.Forward(value), n, lk)

	scale := float32(1 / math.Sqrt(float64(a.headDim)))
	scores := q.BatchMatMul(k.Transpose(0, 1, 3, 2)).MulScalar(tensor.NewScalar(scale))
	if mask != nil {
		scores = scores.Add(mask)
	}

	weights := a.dropout.Forward(scores.Softmax(-1))
	ctx := weights.BatchMatMul(v)

	// [N, H, Lq, D] -> [N, Lq, H, D] -> [N, Lq, E]
	return a.out.Forward(ctx.Transpose(0, 2, 1, 3).Reshape(n, lq, a.embedDim))
}

// Forward performs self-attention without a mask.
func (a *MultiheadAttention[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return a.Attend(x, x, x, nil)
}

// NumHeads returns the head count.
func (a *MultiheadAttention[B]) NumHeads() int { return a.numHeads }

func (a *MultiheadAttention[B]) splitHeads(x *tensor.Tensor[float32, B], n, l int) *tensor.Tensor[float32, B] {
	// [N, L, E] -> [N, L, H, D] -> [N, H, L, D]
	return x.Reshape(n, l, a.numHeads, a.headDim).Transpose(0, 2, 1, 3)
}
