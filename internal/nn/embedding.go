package nn

import (
	"fmt"

	"github.com/warp-ml/warp/internal/tensor"
)

// Embedding is a learned [numEmbeddings, embeddingDim] lookup table.
type Embedding[B tensor.Backend] struct {
	*Base[B]

	weight *Parameter[B]

	numEmbeddings int
	embeddingDim  int
}

// NewEmbedding creates an embedding table initialized from a standard
// normal distribution.
func NewEmbedding[B tensor.Backend](b B, numEmbeddings, embeddingDim int) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("nn: invalid embedding dimensions %dx%d", numEmbeddings, embeddingDim))
	}
	e := &Embedding[B]{
		Base:          NewBase[B](),
		numEmbeddings: numEmbeddings,
		embeddingDim:  embeddingDim,
	}
	e.weight = NewParameter("weight", Randn(b, numEmbeddings, embeddingDim))
	e.RegisterParameter("weight", e.weight)
	return e
}

// Lookup maps integer indices of any shape to embeddings of shape
// [indices..., embeddingDim].
func (e *Embedding[B]) Lookup(indices *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	return e.weight.Tensor().Embedding(indices)
}

// Forward reinterprets a float input as indices. Lookup is the primary
// entry point; Forward exists so embeddings compose inside Sequential.
func (e *Embedding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	idx := tensor.New[int64, B](x.Cast(tensor.Int64), x.Backend())
	return e.Lookup(idx)
}

// Weight returns the embedding table parameter.
func (e *Embedding[B]) Weight() *Parameter[B] { return e.weight }

// NumEmbeddings returns the table's row count.
func (e *Embedding[B]) NumEmbeddings() int { return e.numEmbeddings }

// EmbeddingDim returns the width of each embedding row.
func (e *Embedding[B]) EmbeddingDim() int { return e.embeddingDim }
