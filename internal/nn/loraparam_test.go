package nn_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/internal/nn"
	"github.com/born-ml/lora/internal/tensor"
)

func mustTensor(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestLoRA_FreshAdapterIsIdentity(t *testing.T) {
	fc := nn.NewLinear(3, 2)
	before := fc.Weight().Clone()

	require.NoError(t, fc.RegisterParametrization("weight", nn.LoRAFromLinear(fc, nn.DefaultLoRAConfig)))

	assert.True(t, before.AllClose(fc.Weight(), 0))
	assert.Same(t, fc.WeightParameter(), fc.Parametrizations().Get("weight").Original)
}

func TestLoRA_LinearUpdate(t *testing.T) {
	fc := nn.NewLinearWithBias(2, 2, false)
	require.NoError(t, fc.WeightParameter().Tensor().CopyFrom(mustTensor(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})))

	p := nn.LoRAFromLinear(fc, nn.LoRAConfig{Rank: 1, Alpha: 2})
	require.NoError(t, p.A().Tensor().CopyFrom(mustTensor(t, []float32{1, 2}, tensor.Shape{1, 2})))
	require.NoError(t, p.B().Tensor().CopyFrom(mustTensor(t, []float32{3, 4}, tensor.Shape{2, 1})))
	require.NoError(t, fc.RegisterParametrization("weight", p))

	// W + (B @ A) * 2
	assert.Equal(t, []float32{7, 12, 8, 17}, fc.Weight().Data())

	out := fc.Forward(mustTensor(t, []float32{1, 1}, tensor.Shape{1, 2}))
	assert.Equal(t, []float32{19, 25}, out.Data())

	p.Disable()
	assert.False(t, p.Enabled())
	assert.Equal(t, []float32{1, 0, 0, 1}, fc.Weight().Data())

	p.Enable()
	assert.Equal(t, []float32{7, 12, 8, 17}, fc.Weight().Data())
}

func TestLoRA_EmbeddingLayoutIsSwapped(t *testing.T) {
	emb := nn.NewEmbedding(10, 6)
	p := nn.LoRAFromEmbedding(emb, nn.LoRAConfig{Rank: 2, Alpha: 1})

	assert.True(t, p.Swapped())
	assert.Equal(t, tensor.Shape{10, 2}, p.A().Tensor().Shape())
	assert.Equal(t, tensor.Shape{2, 6}, p.B().Tensor().Shape())

	require.NoError(t, emb.RegisterParametrization("weight", p))
	for i := range p.B().Tensor().Data() {
		p.B().Tensor().Data()[i] = 1
	}
	assert.Equal(t, tensor.Shape{3, 6}, emb.Forward([]int{0, 4, 9}).Shape())
	assert.False(t, emb.Weight().AllClose(emb.WeightParameter().Tensor(), 0))
}

func TestLoRA_LinearFactorShapes(t *testing.T) {
	fc := nn.NewLinear(8, 5)
	p := nn.LoRAFromLinear(fc, nn.DefaultLoRAConfig)

	assert.Equal(t, tensor.Shape{4, 8}, p.A().Tensor().Shape())
	assert.Equal(t, tensor.Shape{5, 4}, p.B().Tensor().Shape())
	assert.InDelta(t, 0.25, p.Scaling(), 1e-7)
	assert.Panics(t, func() { nn.LoRAFromLinear(fc, nn.LoRAConfig{Rank: 0}) })
}

func TestLoRA_History(t *testing.T) {
	p := nn.NewLoRAParametrization(2, 2, false, nn.LoRAConfig{Rank: 1, Alpha: 1})

	err := p.SelectAdapter(0)
	var idxErr *nn.IndexError
	require.True(t, errors.As(err, &idxErr))
	assert.Equal(t, 0, idxErr.Len)

	p.ResetHistory()
	p.A().Tensor().Data()[0] = 1
	p.AppendActive()
	p.A().Tensor().Data()[0] = 2
	p.AppendActive()
	assert.Equal(t, 2, p.NumAdapters())

	require.NoError(t, p.SelectAdapter(0))
	assert.Equal(t, float32(1), p.A().Tensor().Data()[0])
	require.NoError(t, p.SelectAdapter(1))
	assert.Equal(t, float32(2), p.A().Tensor().Data()[0])

	require.ErrorIs(t, p.SelectAdapter(2), nn.ErrAdapterIndex)
	require.ErrorIs(t, p.SelectAdapter(-1), nn.ErrAdapterIndex)
}

func TestRemoveParametrizations(t *testing.T) {
	newLayer := func(t *testing.T) (*nn.Linear, *nn.Parameter) {
		fc := nn.NewLinearWithBias(2, 2, false)
		original := fc.WeightParameter()
		p := nn.NewLoRAParametrization(2, 2, false, nn.LoRAConfig{Rank: 1, Alpha: 1})
		require.NoError(t, p.B().Tensor().CopyFrom(mustTensor(t, []float32{1, 1}, tensor.Shape{2, 1})))
		require.NoError(t, fc.RegisterParametrization("weight", p))
		return fc, original
	}

	t.Run("merge", func(t *testing.T) {
		fc, original := newLayer(t)
		merged := fc.Weight().Clone()

		require.NoError(t, fc.RemoveParametrizations("weight", true))
		assert.Nil(t, fc.Parametrizations())
		assert.True(t, merged.AllClose(fc.Weight(), 1e-6))
		assert.NotSame(t, original, fc.WeightParameter())
	})

	t.Run("remove", func(t *testing.T) {
		fc, original := newLayer(t)

		require.NoError(t, fc.RemoveParametrizations("weight", false))
		assert.Same(t, original, fc.WeightParameter())
		require.ErrorIs(t, fc.RemoveParametrizations("weight", false), nn.ErrNotParametrized)
	})

	t.Run("unknown tensor", func(t *testing.T) {
		fc := nn.NewLinear(2, 2)
		require.ErrorIs(t, fc.RegisterParametrization("bias", nil), nn.ErrNoSuchTensor)
	})
}
