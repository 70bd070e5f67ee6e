package nn

import (
	"fmt"

	"github.com/born-ml/lora/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter, possibly parametrized
//   - Forward: indices [n] -> embeddings [n, EmbedDim]
//
// Example:
//
//	// Vocabulary of 10000 words, embedding dimension 256
//	embed := nn.NewEmbedding(10000, 256)
//	vectors := embed.Forward([]int{1, 2, 3}) // [3, 256]
type Embedding struct {
	parametrizedWeight
	NumEmbed int // Number of embeddings (vocabulary size)
	EmbedDim int // Embedding dimension (vector size)
}

// NewEmbedding creates an Embedding layer with weights drawn from N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int) *Embedding {
	return NewEmbeddingWithWeight(tensor.Randn(tensor.Shape{numEmbeddings, embeddingDim}))
}

// NewEmbeddingWithWeight creates an Embedding layer using the provided
// [numEmbeddings, embeddingDim] weight.
func NewEmbeddingWithWeight(weight *tensor.Tensor) *Embedding {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding{
		parametrizedWeight: parametrizedWeight{weight: NewParameter("weight", weight)},
		NumEmbed:           shape[0],
		EmbedDim:           shape[1],
	}
}

// Forward looks up the (effective) embedding vector of each index.
//
// Panics if any index is out of bounds [0, NumEmbed).
func (e *Embedding) Forward(indices []int) *tensor.Tensor {
	return e.Weight().Rows(indices)
}

// Children returns the "parametrizations" child when the weight is
// parametrized.
func (e *Embedding) Children() []Child {
	return e.weightChildren()
}

// LocalParameters returns the weight unless it is parametrized.
func (e *Embedding) LocalParameters() []NamedParameter {
	return e.weightParameters()
}
