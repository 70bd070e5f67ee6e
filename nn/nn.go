// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"iter"

	"github.com/born-ml/lora/internal/nn"
	"github.com/born-ml/lora/internal/tensor"
)

// Module is a node in a model tree.
type Module = nn.Module

// Layer is a module with a tensor-to-tensor forward pass.
type Layer = nn.Layer

// Child is a named sub-module.
type Child = nn.Child

// NamedParameter is a parameter with its local name.
type NamedParameter = nn.NamedParameter

// Parameter is a trainable tensor.
type Parameter = nn.Parameter

// StateDict maps parameter paths to tensors.
type StateDict = nn.StateDict

// LoadResult reports the keys a state dict load did not match.
type LoadResult = nn.LoadResult

// NewParameter creates a parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Walk visits every module in pre-order with its dotted path.
func Walk(m Module, fn func(path string, m Module) error) error {
	return nn.Walk(m, fn)
}

// NamedModules yields every module with its dotted path.
func NamedModules(m Module) iter.Seq2[string, Module] {
	return nn.NamedModules(m)
}

// NamedParameters yields every distinct parameter with its dotted path.
// Shared parameters appear once, under their first path.
func NamedParameters(m Module) iter.Seq2[string, *Parameter] {
	return nn.NamedParameters(m)
}

// Parameters returns every distinct parameter.
func Parameters(m Module) []*Parameter {
	return nn.Parameters(m)
}

// StateDictOf returns the tensors of m by path, including every path of a
// shared parameter.
func StateDictOf(m Module) StateDict {
	return nn.StateDictOf(m)
}

// LoadStateDict copies sd into the parameters of m. With strict set, missing
// or unexpected keys are an error.
func LoadStateDict(m Module, sd StateDict, strict bool) (LoadResult, error) {
	return nn.LoadStateDict(m, sd, strict)
}

// Layers

// Linear is a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier-initialized weights and a
// zero bias.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// NewLinearWithBias creates a linear layer, with or without a bias.
func NewLinearWithBias(inFeatures, outFeatures int, useBias bool) *Linear {
	return nn.NewLinearWithBias(inFeatures, outFeatures, useBias)
}

// Embedding is a lookup table of row vectors.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding with normally distributed rows.
func NewEmbedding(numEmbeddings, embeddingDim int) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim)
}

// NewEmbeddingWithWeight creates an embedding from an existing table.
func NewEmbeddingWithWeight(weight *tensor.Tensor) *Embedding {
	return nn.NewEmbeddingWithWeight(weight)
}

// Sequential chains layers, naming them by index.
type Sequential = nn.Sequential

// NewSequential creates a Sequential of modules.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// ModuleDict holds named modules in insertion order.
type ModuleDict = nn.ModuleDict

// NewModuleDict creates an empty ModuleDict.
func NewModuleDict() *ModuleDict {
	return nn.NewModuleDict()
}

// Parametrizations

// Parametrization transforms a stored tensor into the tensor a layer uses.
type Parametrization = nn.Parametrization

// Parametrizable is a layer whose weight can carry parametrizations.
type Parametrizable = nn.Parametrizable

// ParametrizationList is the chain registered on one tensor.
type ParametrizationList = nn.ParametrizationList

// Parametrizations holds the chains of a layer by tensor name.
type Parametrizations = nn.Parametrizations

// LoRAConfig sets the rank and alpha of a LoRA adapter.
type LoRAConfig = nn.LoRAConfig

// LoRAParametrization adds a scaled low-rank update to a weight.
type LoRAParametrization = nn.LoRAParametrization

// IndexError reports an adapter index outside the recorded history.
type IndexError = nn.IndexError

// DefaultLoRAConfig is rank 4, alpha 1.
var DefaultLoRAConfig = nn.DefaultLoRAConfig

// Errors.
var (
	ErrAdapterIndex    = nn.ErrAdapterIndex
	ErrNoSuchTensor    = nn.ErrNoSuchTensor
	ErrNotParametrized = nn.ErrNotParametrized
	ErrStateDictKeys   = nn.ErrStateDictKeys
)

// NewLoRAParametrization creates an adapter for a weight with fanIn inputs and
// fanOut outputs. With swap set the factors are laid out for an embedding
// table.
func NewLoRAParametrization(fanIn, fanOut int, swap bool, cfg LoRAConfig) *LoRAParametrization {
	return nn.NewLoRAParametrization(fanIn, fanOut, swap, cfg)
}

// LoRAFromLinear creates an adapter shaped for l.
func LoRAFromLinear(l *Linear, cfg LoRAConfig) *LoRAParametrization {
	return nn.LoRAFromLinear(l, cfg)
}

// LoRAFromEmbedding creates an adapter shaped for e.
func LoRAFromEmbedding(e *Embedding, cfg LoRAConfig) *LoRAParametrization {
	return nn.LoRAFromEmbedding(e, cfg)
}
