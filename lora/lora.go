// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package lora

import (
	"context"
	"io"
	"iter"

	"github.com/born-ml/lora/internal/envconfig"
	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/nn"
	"github.com/born-ml/lora/internal/serialization"
	"github.com/born-ml/lora/internal/tensor"
)

// Enable turns on every adapter in model.
func Enable(model nn.Module) {
	lora.Enable(model)
}

// Disable turns off every adapter in model. Layers then compute with their
// original weights.
func Disable(model nn.Module) {
	lora.Disable(model)
}

// Apply calls fn for every adapter in model, stopping at the first error.
func Apply(model nn.Module, fn func(path string, p *nn.LoRAParametrization) error) error {
	return lora.Apply(model, fn)
}

// Parameter selection

// NameFilter reports whether a parameter path is selected.
type NameFilter = lora.NameFilter

// Option configures ParamsByName.
type Option = lora.Option

// NameIsLoRA reports whether name is an adapter factor path
// (...parametrizations.weight.N.lora_A or lora_B).
func NameIsLoRA(name string) bool {
	return lora.NameIsLoRA(name)
}

// NameIsBias reports whether the last segment of name is "bias".
func NameIsBias(name string) bool {
	return lora.NameIsBias(name)
}

// WithShapes prints "path [shape]" to w for every yielded parameter.
func WithShapes(w io.Writer) Option {
	return lora.WithShapes(w)
}

// ParamsByName yields the distinct parameters of model whose path passes
// filter. A nil filter selects everything.
func ParamsByName(model nn.Module, filter NameFilter, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	return lora.ParamsByName(model, filter, opts...)
}

// LoRAParams yields the adapter factors of model.
func LoRAParams(model nn.Module, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	return lora.LoRAParams(model, opts...)
}

// BiasParams yields the bias parameters of model.
func BiasParams(model nn.Module, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	return lora.BiasParams(model, opts...)
}

// LoRAStateDict returns the adapter factors of model by path.
func LoRAStateDict(model nn.Module) nn.StateDict {
	return lora.LoRAStateDict(model)
}

// Multiple adapters

// Prepare clears the adapter history of every layer in model.
func Prepare(model nn.Module) {
	lora.Prepare(model)
}

// Append loads sd into the active adapters and records it as the next
// adapter. Unmatched keys are reported, not rejected.
func Append(model nn.Module, sd nn.StateDict) (nn.LoadResult, error) {
	return lora.Append(model, sd)
}

// LoadMultiple replaces the adapter history of model with stateDicts, in
// order. The last one stays active.
func LoadMultiple(model nn.Module, stateDicts []nn.StateDict) error {
	return lora.LoadMultiple(model, stateDicts)
}

// Select makes adapter index active on every layer. An index outside the
// history fails with nn.ErrAdapterIndex and changes nothing.
func Select(model nn.Module, index int) error {
	return lora.Select(model, index)
}

// Tied weights

// TieWeights makes embedding share the original weight and adapter factors
// of linear, with the factor roles swapped.
func TieWeights(linear *nn.Linear, embedding *nn.Embedding) error {
	return lora.TieWeights(linear, embedding)
}

// UntieWeights gives embedding its own copies of its original weight and
// factors.
func UntieWeights(embedding *nn.Embedding) error {
	return lora.UntieWeights(embedding)
}

// Adding and removing adapters

// Rule decides whether a layer gets an adapter, and builds it.
type Rule = lora.Rule

// LinearRule adapts the weight of every Linear layer.
func LinearRule(cfg nn.LoRAConfig) Rule {
	return lora.LinearRule(cfg)
}

// EmbeddingRule adapts the weight of every Embedding layer.
func EmbeddingRule(cfg nn.LoRAConfig) Rule {
	return lora.EmbeddingRule(cfg)
}

// DefaultRules adapts Linear and Embedding weights with cfg.
func DefaultRules(cfg nn.LoRAConfig) []Rule {
	return lora.DefaultRules(cfg)
}

// Add registers an adapter on every layer matched by rules.
func Add(model nn.Module, rules ...Rule) error {
	return lora.Add(model, rules...)
}

// AddByName is Add restricted to sub-trees whose path contains a target.
func AddByName(model nn.Module, targets []string, rules ...Rule) error {
	return lora.AddByName(model, targets, rules...)
}

// Merge folds every adapter into its weight and removes it.
func Merge(model nn.Module) error {
	return lora.Merge(model)
}

// Remove drops every adapter, restoring the original weights.
func Remove(model nn.Module) error {
	return lora.Remove(model)
}

// Checkpoints

// Checkpoint is a decoded checkpoint file.
type Checkpoint = serialization.Checkpoint

// SaveLoRA writes the adapter factors of model to a SafeTensors file.
func SaveLoRA(path string, model nn.Module, dtype tensor.DataType, metadata map[string]string) error {
	return lora.SaveLoRA(path, model, dtype, metadata)
}

// ReadCheckpoints reads SafeTensors or PyTorch checkpoints concurrently,
// at most LORA_MAX_READERS at a time.
func ReadCheckpoints(ctx context.Context, paths []string) ([]*Checkpoint, error) {
	return lora.ReadCheckpoints(ctx, paths, envconfig.MaxReaders())
}

// LoadMultipleFromFiles is LoadMultiple over checkpoint files. Adapter i
// comes from paths[i].
func LoadMultipleFromFiles(ctx context.Context, model nn.Module, paths []string) error {
	return lora.LoadMultipleFromFiles(ctx, model, paths, envconfig.MaxReaders())
}
