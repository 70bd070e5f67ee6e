package lora_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/nn"
)

const (
	vocabSize = 6
	embedDim  = 4
)

// newTinyLM builds an embedding and an output head, both with rank-2
// adapters:
//
//	embed.parametrizations.weight.{original,0.lora_A,0.lora_B}
//	head.bias
//	head.parametrizations.weight.{original,0.lora_A,0.lora_B}
func newTinyLM(t *testing.T) (*nn.ModuleDict, *nn.Embedding, *nn.Linear) {
	t.Helper()

	embed := nn.NewEmbedding(vocabSize, embedDim)
	head := nn.NewLinear(embedDim, vocabSize)

	model := nn.NewModuleDict()
	model.Add("embed", embed)
	model.Add("head", head)

	require.NoError(t, lora.Add(model, lora.DefaultRules(nn.LoRAConfig{Rank: 2, Alpha: 2})...))
	return model, embed, head
}

// filled returns a copy of sd with every element set to v.
func filled(sd nn.StateDict, v float32) nn.StateDict {
	out := make(nn.StateDict, len(sd))
	for k, t := range sd {
		c := t.Clone()
		for i := range c.Data() {
			c.Data()[i] = v
		}
		out[k] = c
	}
	return out
}

func adapterOf(t *testing.T, layer nn.Parametrizable) *nn.LoRAParametrization {
	t.Helper()
	list := layer.Parametrizations().Get("weight")
	require.NotNil(t, list)
	p, ok := list.At(0).(*nn.LoRAParametrization)
	require.True(t, ok)
	return p
}
