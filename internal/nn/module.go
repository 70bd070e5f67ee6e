// Package nn implements the module tree that LoRA adapters attach to.
//
// This package provides:
//   - Module interface: a node with named children and named parameters
//   - Parameter: a learnable tensor with reference identity
//   - Linear, Embedding: layers whose weight can be parametrized
//   - Sequential, ModuleDict: containers for building trees
//   - Parametrizations and LoRAParametrization: computed weights
//   - Walk, NamedParameters, StateDict, LoadStateDict: tree traversal
//
// Parameter paths follow the dotted naming used by PyTorch checkpoints, so a
// LoRA factor on a Linear registered as "fc" is named
// "fc.parametrizations.weight.0.lora_A".
package nn

import (
	"iter"

	"github.com/born-ml/lora/internal/tensor"
)

// Module is a node in a model tree.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewModuleDict()
//	model.Add("embed", nn.NewEmbedding(1000, 64))
//	model.Add("head", nn.NewLinear(64, 1000))
type Module interface {
	// Children returns the direct sub-modules in registration order.
	Children() []Child

	// LocalParameters returns the parameters registered directly on this
	// module, excluding those of its children.
	LocalParameters() []NamedParameter
}

// Layer is a module that maps an input tensor to an output tensor.
type Layer interface {
	Module

	// Forward computes the output of the layer given an input tensor.
	Forward(input *tensor.Tensor) *tensor.Tensor
}

// Child is a named sub-module.
type Child struct {
	Name   string
	Module Module
}

// NamedParameter is a parameter together with its name relative to the
// module that reports it.
type NamedParameter struct {
	Name  string
	Param *Parameter
}

// StateDict maps dotted parameter paths to tensors.
type StateDict map[string]*tensor.Tensor

// Walk visits m and every descendant in pre-order, passing each module's
// dotted path ("" for m itself). Returning an error from fn stops the walk
// and the error is returned.
func Walk(m Module, fn func(path string, m Module) error) error {
	return walk("", m, fn)
}

func walk(path string, m Module, fn func(string, Module) error) error {
	if err := fn(path, m); err != nil {
		return err
	}
	for _, c := range m.Children() {
		if c.Module == nil {
			continue
		}
		if err := walk(join(path, c.Name), c.Module, fn); err != nil {
			return err
		}
	}
	return nil
}

// NamedModules returns a lazy sequence of (path, module) pairs in pre-order.
func NamedModules(m Module) iter.Seq2[string, Module] {
	return func(yield func(string, Module) bool) {
		stop := errStop{}
		_ = Walk(m, func(path string, m Module) error {
			if !yield(path, m) {
				return stop
			}
			return nil
		})
	}
}

// NamedParameters returns a lazy sequence of (path, parameter) pairs.
//
// A module's own parameters come before those of its children. A parameter
// reachable under several paths (a tied weight) is yielded only once, under
// the first path encountered.
func NamedParameters(m Module) iter.Seq2[string, *Parameter] {
	return func(yield func(string, *Parameter) bool) {
		seen := make(map[*Parameter]struct{})
		for path, p := range allParameters(m) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			if !yield(path, p) {
				return
			}
		}
	}
}

// Parameters returns all distinct parameters of m.
func Parameters(m Module) []*Parameter {
	var params []*Parameter
	for _, p := range NamedParameters(m) {
		params = append(params, p)
	}
	return params
}

// allParameters yields every (path, parameter) pair, including duplicates.
func allParameters(m Module) iter.Seq2[string, *Parameter] {
	return func(yield func(string, *Parameter) bool) {
		stop := errStop{}
		_ = Walk(m, func(path string, m Module) error {
			for _, np := range m.LocalParameters() {
				if np.Param == nil {
					continue
				}
				if !yield(join(path, np.Name), np.Param) {
					return stop
				}
			}
			return nil
		})
	}
}

// StateDictOf returns every parameter of m keyed by path. Tied parameters
// appear under each of their paths and share the same tensor.
func StateDictOf(m Module) StateDict {
	sd := make(StateDict)
	for path, p := range allParameters(m) {
		sd[path] = p.Tensor()
	}
	return sd
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// errStop ends a walk early when a sequence consumer stops iterating.
type errStop struct{}

func (errStop) Error() string { return "stop" }
