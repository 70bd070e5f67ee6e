package lora

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/born-ml/lora/internal/nn"
)

// Rule decides whether a layer gets an adapter, and builds it.
// It returns the name of the tensor to parametrize and the parametrization.
type Rule func(layer nn.Module) (name string, p nn.Parametrization, ok bool)

// LinearRule adapts the weight of every Linear layer.
func LinearRule(cfg nn.LoRAConfig) Rule {
	return func(layer nn.Module) (string, nn.Parametrization, bool) {
		l, ok := layer.(*nn.Linear)
		if !ok {
			return "", nil, false
		}
		return "weight", nn.LoRAFromLinear(l, cfg), true
	}
}

// EmbeddingRule adapts the weight of every Embedding layer.
func EmbeddingRule(cfg nn.LoRAConfig) Rule {
	return func(layer nn.Module) (string, nn.Parametrization, bool) {
		e, ok := layer.(*nn.Embedding)
		if !ok {
			return "", nil, false
		}
		return "weight", nn.LoRAFromEmbedding(e, cfg), true
	}
}

// DefaultRules adapts Linear and Embedding weights with cfg.
func DefaultRules(cfg nn.LoRAConfig) []Rule {
	return []Rule{LinearRule(cfg), EmbeddingRule(cfg)}
}

type target struct {
	path  string
	layer nn.Parametrizable
}

// collect returns the parametrizable layers in model whose path passes
// match, each layer once.
func collect(model nn.Module, match func(path string) bool) []target {
	var targets []target
	seen := make(map[nn.Parametrizable]struct{})
	_ = nn.Walk(model, func(path string, m nn.Module) error {
		layer, ok := m.(nn.Parametrizable)
		if !ok || !match(path) {
			return nil
		}
		if _, dup := seen[layer]; dup {
			return nil
		}
		seen[layer] = struct{}{}
		targets = append(targets, target{path: path, layer: layer})
		return nil
	})
	return targets
}

func register(targets []target, rules []Rule) error {
	if len(rules) == 0 {
		rules = DefaultRules(nn.DefaultLoRAConfig)
	}
	for _, t := range targets {
		for _, rule := range rules {
			name, p, ok := rule(t.layer)
			if !ok {
				continue
			}
			if err := t.layer.RegisterParametrization(name, p); err != nil {
				return fmt.Errorf("adding adapter to %s: %w", t.path, err)
			}
			slog.Debug("registered adapter", "path", t.path, "tensor", name)
		}
	}
	return nil
}

// Add registers an adapter on every layer of model matched by rules
// (DefaultRules(nn.DefaultLoRAConfig) when none are given). Calling Add twice
// stacks a second adapter on each layer.
func Add(model nn.Module, rules ...Rule) error {
	return register(collect(model, func(string) bool { return true }), rules)
}

// AddByName is Add restricted to sub-trees whose path contains one of
// targets. A layer inside several matching sub-trees is adapted once.
func AddByName(model nn.Module, targets []string, rules ...Rule) error {
	var roots []string
	_ = nn.Walk(model, func(path string, _ nn.Module) error {
		for _, t := range targets {
			if strings.Contains(path, t) {
				roots = append(roots, path)
				break
			}
		}
		return nil
	})

	inMatchedTree := func(path string) bool {
		for _, root := range roots {
			if path == root || strings.HasPrefix(path, root+".") {
				return true
			}
		}
		return false
	}
	return register(collect(model, inMatchedTree), rules)
}

// Merge folds every parametrization in model into its weight and removes
// it. Layers then compute with the adapted weight and carry no adapter.
func Merge(model nn.Module) error {
	return removeAll(model, true)
}

// Remove drops every parametrization in model, restoring original weights.
func Remove(model nn.Module) error {
	return removeAll(model, false)
}

func removeAll(model nn.Module, merge bool) error {
	for _, t := range collect(model, func(string) bool { return true }) {
		for _, name := range t.layer.Parametrizations().Names() {
			if err := t.layer.RemoveParametrizations(name, merge); err != nil {
				return fmt.Errorf("removing adapter from %s: %w", t.path, err)
			}
		}
	}
	return nil
}
