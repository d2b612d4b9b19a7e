package nn

import "github.com/warp-ml/warp/internal/tensor"

// TransformerEncoderLayer is self-attention followed by a position-wise
// feed-forward block, each wrapped in a residual connection and layer
// normalization (post-norm).
type TransformerEncoderLayer[B tensor.Backend] struct {
	*Base[B]

	attn    *MultiheadAttention[B]
	linear1 *Linear[B]
	linear2 *Linear[B]
	norm1   *LayerNorm[B]
	norm2   *LayerNorm[B]
	dropout *Dropout[B]
}

// NewTransformerEncoderLayer creates an encoder layer with the given
// model width, head count and feed-forward width.
func NewTransformerEncoderLayer[B tensor.Backend](b B, dModel, numHeads, dimFeedforward int, dropoutP float32) *TransformerEncoderLayer[B] {
	l := &TransformerEncoderLayer[B]{
		Base:    NewBase[B](),
		attn:    NewMultiheadAttention(b, dModel, numHeads, dropoutP),
		linear1: NewLinear(b, dModel, dimFeedforward, true),
		linear2: NewLinear(b, dimFeedforward, dModel, true),
		norm1:   NewLayerNorm(b, dModel),
		norm2:   NewLayerNorm(b, dModel),
		dropout: NewDropout[B](dropoutP),
	}
	l.RegisterModule("attn", l.attn)
	l.RegisterModule("linear1", l.linear1)
	l.RegisterModule("linear2", l.linear2)
	l.RegisterModule("norm1", l.norm1)
	l.RegisterModule("norm2", l.norm2)
	l.RegisterModule("dropout", l.dropout)
	return l
}

// Forward encodes [N, L, dModel] sequences without a mask.
func (l *TransformerEncoderLayer[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.ForwardMasked(x, nil)
}

// ForwardMasked encodes with an optional additive attention mask.
func (l *TransformerEncoderLayer[B]) ForwardMasked(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	attended := l.dropout.Forward(l.attn.Attend(x, x, x, mask))
	x = l.norm1.Forward(x.Add(attended))

	ff := l.linear2.Forward(l.dropout.Forward(l.linear1.Forward(x).ReLU()))
	return l.norm2.Forward(x.Add(l.dropout.Forward(ff)))
}

// TransformerDecoderLayer adds cross-attention over encoder memory to
// the encoder layer structure.
type TransformerDecoderLayer[B tensor.Backend] struct {
	*Base[B]

	selfAttn  *MultiheadAttention[B]
	crossAttn *MultiheadAttention[B]
	linear1   *Linear[B]
	linear2   *Linear[B]
	norm1     *LayerNorm[B]
	norm2     *LayerNorm[B]
	norm3     *LayerNorm[B]
	dropout   *Dropout[B]
}

// NewTransformerDecoderLayer creates a decoder layer.
func NewTransformerDecoderLayer[B tensor.Backend](b B, dModel, numHeads, dimFeedforward int, dropoutP float32) *TransformerDecoderLayer[B] {
	l := &TransformerDecoderLayer[B]{
		Base:      NewBase[B](),
		selfAttn:  NewMultiheadAttention(b, dModel, numHeads, dropoutP),
		crossAttn: NewMultiheadAttention(b, dModel, numHeads, dropoutP),
		linear1:   NewLinear(b, dModel, dimFeedforward, true),
		linear2:   NewLinear(b, dimFeedforward, dModel, true),
		norm1:     NewLayerNorm(b, dModel),
		norm2:     NewLayerNorm(b, dModel),
		norm3:     NewLayerNorm(b, dModel),
		dropout:   NewDropout[B](dropoutP),
	}
	l.RegisterModule("self_attn", l.selfAttn)
	l.RegisterModule("cross_attn", l.crossAttn)
	l.RegisterModule("linear1", l.linear1)
	l.RegisterModule("linear2", l.linear2)
	l.RegisterModule("norm1", l.norm1)
	l.RegisterModule("norm2", l.norm2)
	l.RegisterModule("norm3", l.norm3)
	l.RegisterModule("dropout", l.dropout)
	return l
}

// Decode attends the target sequence over itself and then over the
// encoder memory. Masks are optional additive masks for the respective
// attention blocks.
func (l *TransformerDecoderLayer[B]) Decode(tgt, memory, tgtMask, memoryMask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	attended := l.dropout.Forward(l.selfAttn.Attend(tgt, tgt, tgt, tgtMask))
	x := l.norm1.Forward(tgt.Add(attended))

	crossed := l.dropout.Forward(l.crossAttn.Attend(x, memory, memory, memoryMask))
	x = l.norm2.Forward(x.Add(crossed))

	ff := l.linear2.Forward(l.dropout.Forward(l.linear1.Forward(x).ReLU()))
	return l.norm3.Forward(x.Add(l.dropout.Forward(ff)))
}

// Forward decodes with the input serving as its own memory, which makes
// the layer usable in single-input pipelines.
func (l *TransformerDecoderLayer[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.Decode(x, x, nil, nil)
}

// CausalMask returns an [L, L] additive mask with -inf above the
// diagonal, suitable for autoregressive self-attention.
func CausalMask[B tensor.Backend](b B, l int) *tensor.Tensor[float32, B] {
	data := make([]float32, l*l)
	const negInf = float32(-1e9)
	for i := 0; i < l; i++ {
		for j := i + 1; j < l; j++ {
			data[i*l+j] = negInf
		}
	}
	return fromSlice(b, data, []int{l, l})
}
