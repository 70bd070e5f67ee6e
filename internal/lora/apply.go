package lora

import (
	"github.com/born-ml/lora/internal/nn"
)

// Apply calls fn with the path of every LoRA parametrization in model, in
// pre-order. Other modules are skipped. An error from fn stops the walk.
func Apply(model nn.Module, fn func(path string, p *nn.LoRAParametrization) error) error {
	return nn.Walk(model, func(path string, m nn.Module) error {
		if p, ok := m.(*nn.LoRAParametrization); ok {
			return fn(path, p)
		}
		return nil
	})
}

// adapters returns every LoRA parametrization in model with its path.
func adapters(model nn.Module) (paths []string, ps []*nn.LoRAParametrization) {
	_ = Apply(model, func(path string, p *nn.LoRAParametrization) error {
		paths = append(paths, path)
		ps = append(ps, p)
		return nil
	})
	return paths, ps
}

// Enable turns on every adapter in model.
func Enable(model nn.Module) {
	_, ps := adapters(model)
	for _, p := range ps {
		p.Enable()
	}
}

// Disable turns off every adapter in model, so layers compute with their
// original weights.
func Disable(model nn.Module) {
	_, ps := adapters(model)
	for _, p := range ps {
		p.Disable()
	}
}
