package lora_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/nn"
)

func TestAdd_DefaultRules(t *testing.T) {
	model := nn.NewSequential(
		nn.NewEmbedding(10, 8),
		nn.NewLinear(8, 8),
	)
	require.NoError(t, lora.Add(model))

	names := collectNames(lora.LoRAParams(model))
	assert.Equal(t, []string{
		"0.parametrizations.weight.0.lora_A",
		"0.parametrizations.weight.0.lora_B",
		"1.parametrizations.weight.0.lora_A",
		"1.parametrizations.weight.0.lora_B",
	}, names)

	p := adapterOf(t, model.Module(1).(*nn.Linear))
	assert.Equal(t, nn.DefaultLoRAConfig.Rank, p.Rank())
}

func TestAddByName(t *testing.T) {
	block := nn.NewModuleDict()
	block.Add("attn", nn.NewLinear(4, 4))
	block.Add("mlp", nn.NewLinear(4, 4))

	model := nn.NewModuleDict()
	model.Add("block", block)
	model.Add("head", nn.NewLinear(4, 2))

	require.NoError(t, lora.AddByName(model, []string{"attn", "block"}, lora.LinearRule(nn.LoRAConfig{Rank: 1, Alpha: 1})))

	names := collectNames(lora.LoRAParams(model))
	assert.Equal(t, []string{
		"block.attn.parametrizations.weight.0.lora_A",
		"block.attn.parametrizations.weight.0.lora_B",
		"block.mlp.parametrizations.weight.0.lora_A",
		"block.mlp.parametrizations.weight.0.lora_B",
	}, names)

	// "attn" matched twice (directly and through "block") but has one adapter.
	assert.Equal(t, 1, block.Get("attn").(*nn.Linear).Parametrizations().Get("weight").Len())
	assert.Nil(t, model.Get("head").(*nn.Linear).Parametrizations())
}

func TestMergeAndRemove(t *testing.T) {
	setup := func(t *testing.T) (*nn.ModuleDict, *nn.Linear) {
		model, _, head := newTinyLM(t)
		for i := range adapterOf(t, head).B().Tensor().Data() {
			adapterOf(t, head).B().Tensor().Data()[i] = 1
		}
		return model, head
	}

	t.Run("merge", func(t *testing.T) {
		model, head := setup(t)
		adapted := head.Weight().Clone()

		require.NoError(t, lora.Merge(model))
		assert.Nil(t, head.Parametrizations())
		assert.True(t, adapted.AllClose(head.Weight(), 1e-6))
		assert.Empty(t, collectNames(lora.LoRAParams(model)))
		assert.Contains(t, collectNames(lora.ParamsByName(model, nil)), "head.weight")
	})

	t.Run("remove", func(t *testing.T) {
		model, head := setup(t)
		original := head.WeightParameter()

		require.NoError(t, lora.Remove(model))
		assert.Nil(t, head.Parametrizations())
		assert.Same(t, original, head.WeightParameter())
		assert.Empty(t, collectNames(lora.LoRAParams(model)))
	})
}
