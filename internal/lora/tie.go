package lora

import (
	"fmt"

	"github.com/born-ml/lora/internal/nn"
)

// weightAdapter returns the weight chain of layer and its first
// parametrization, which must be a LoRA adapter.
func weightAdapter(layer nn.Parametrizable) (*nn.ParametrizationList, *nn.LoRAParametrization, error) {
	list := layer.Parametrizations().Get("weight")
	if list == nil || list.Len() == 0 {
		return nil, nil, fmt.Errorf("%T weight: %w", layer, nn.ErrNotParametrized)
	}
	p, ok := list.At(0).(*nn.LoRAParametrization)
	if !ok {
		return nil, nil, fmt.Errorf("%T weight: first parametrization is %T: %w", layer, list.At(0), nn.ErrNotParametrized)
	}
	return list, p, nil
}

// TieWeights makes embedding share linear's base weight and adapter.
//
// Afterwards both layers hold the same original weight parameter, and the
// embedding's A and B factors are linear's B and A: an embedding stores its
// weight transposed relative to an output projection, so the roles swap.
// Shapes are not checked.
func TieWeights(linear *nn.Linear, embedding *nn.Embedding) error {
	src, srcLoRA, err := weightAdapter(linear)
	if err != nil {
		return err
	}
	dst, dstLoRA, err := weightAdapter(embedding)
	if err != nil {
		return err
	}

	dst.Original = src.Original
	dstLoRA.SetFactors(srcLoRA.B(), srcLoRA.A())
	return nil
}

// UntieWeights gives embedding independent copies of its current base
// weight and adapter factors. The layer it was tied to is not modified.
func UntieWeights(embedding *nn.Embedding) error {
	list, p, err := weightAdapter(embedding)
	if err != nil {
		return err
	}

	list.Original = nn.NewParameter("original", list.Original.Tensor().Clone())
	p.SetFactors(
		nn.NewParameter("lora_A", p.A().Tensor().Clone()),
		nn.NewParameter("lora_B", p.B().Tensor().Clone()),
	)
	return nil
}
