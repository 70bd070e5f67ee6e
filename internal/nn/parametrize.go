package nn

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/born-ml/lora/internal/tensor"
)

// Parametrization errors.
var (
	ErrNoSuchTensor    = errors.New("module has no such tensor")
	ErrNotParametrized = errors.New("tensor is not parametrized")
)

// Parametrization computes a tensor's effective value from its stored value.
type Parametrization interface {
	Module

	// Apply returns the parametrized value of x. x is not modified.
	Apply(x *tensor.Tensor) *tensor.Tensor
}

// Parametrizable is implemented by layers whose tensors can carry
// parametrizations.
type Parametrizable interface {
	Module

	// Parametrizations returns the registered parametrizations, or nil.
	Parametrizations() *Parametrizations

	// RegisterParametrization appends p to the chain for the named tensor.
	// The first registration moves the stored tensor to the chain's original.
	RegisterParametrization(name string, p Parametrization) error

	// RemoveParametrizations drops the chain for the named tensor. With
	// leaveParametrized the tensor keeps its current computed value,
	// otherwise it reverts to the original.
	RemoveParametrizations(name string, leaveParametrized bool) error
}

// ParametrizationList is the chain of parametrizations on one tensor.
//
// Its children are named "0", "1", ... and its single local parameter is
// "original", giving paths such as "parametrizations.weight.0.lora_A".
type ParametrizationList struct {
	Original *Parameter
	items    []Parametrization
}

// Len returns the number of parametrizations in the chain.
func (l *ParametrizationList) Len() int {
	return len(l.items)
}

// At returns the i-th parametrization.
func (l *ParametrizationList) At(i int) Parametrization {
	return l.items[i]
}

// Value computes the effective tensor by applying each parametrization to
// the original in order.
func (l *ParametrizationList) Value() *tensor.Tensor {
	x := l.Original.Tensor()
	for _, p := range l.items {
		x = p.Apply(x)
	}
	return x
}

// Children returns the parametrizations keyed by position.
func (l *ParametrizationList) Children() []Child {
	children := make([]Child, len(l.items))
	for i, p := range l.items {
		children[i] = Child{Name: strconv.Itoa(i), Module: p}
	}
	return children
}

// LocalParameters returns the original parameter.
func (l *ParametrizationList) LocalParameters() []NamedParameter {
	return []NamedParameter{{Name: "original", Param: l.Original}}
}

// Parametrizations holds one ParametrizationList per parametrized tensor.
type Parametrizations struct {
	names []string
	lists map[string]*ParametrizationList
}

// Get returns the chain for the named tensor, or nil.
// A nil receiver has no chains.
func (p *Parametrizations) Get(name string) *ParametrizationList {
	if p == nil {
		return nil
	}
	return p.lists[name]
}

// Names returns the parametrized tensor names in registration order.
func (p *Parametrizations) Names() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.names)
}

// Children returns one child per parametrized tensor.
func (p *Parametrizations) Children() []Child {
	children := make([]Child, len(p.names))
	for i, name := range p.names {
		children[i] = Child{Name: name, Module: p.lists[name]}
	}
	return children
}

// LocalParameters returns nothing; all parameters live in the chains.
func (p *Parametrizations) LocalParameters() []NamedParameter {
	return nil
}

// parametrizedWeight is embedded by layers with a single parametrizable
// tensor named "weight".
type parametrizedWeight struct {
	weight           *Parameter // nil while parametrized
	parametrizations *Parametrizations
}

// Weight returns the effective weight tensor, computed through the
// parametrization chain when one is registered.
func (w *parametrizedWeight) Weight() *tensor.Tensor {
	if l := w.parametrizations.Get("weight"); l != nil {
		return l.Value()
	}
	return w.weight.Tensor()
}

// WeightParameter returns the stored weight parameter. While parametrized
// this is the chain's original.
func (w *parametrizedWeight) WeightParameter() *Parameter {
	if l := w.parametrizations.Get("weight"); l != nil {
		return l.Original
	}
	return w.weight
}

// Parametrizations returns the registered parametrizations, or nil.
func (w *parametrizedWeight) Parametrizations() *Parametrizations {
	return w.parametrizations
}

// RegisterParametrization appends p to the weight's chain.
func (w *parametrizedWeight) RegisterParametrization(name string, p Parametrization) error {
	if name != "weight" {
		return fmt.Errorf("%w: %q", ErrNoSuchTensor, name)
	}
	if l := w.parametrizations.Get(name); l != nil {
		l.items = append(l.items, p)
		return nil
	}

	w.parametrizations = &Parametrizations{
		names: []string{name},
		lists: map[string]*ParametrizationList{
			name: {Original: w.weight, items: []Parametrization{p}},
		},
	}
	w.weight = nil
	return nil
}

// RemoveParametrizations drops the weight's chain. A merged weight gets a
// fresh parameter so that a tied original is left untouched.
func (w *parametrizedWeight) RemoveParametrizations(name string, leaveParametrized bool) error {
	l := w.parametrizations.Get(name)
	if l == nil {
		return fmt.Errorf("%w: %q", ErrNotParametrized, name)
	}

	if leaveParametrized {
		w.weight = NewParameter(name, l.Value().Clone())
	} else {
		w.weight = l.Original
	}

	delete(w.parametrizations.lists, name)
	w.parametrizations.names = slices.DeleteFunc(w.parametrizations.names, func(n string) bool { return n == name })
	if len(w.parametrizations.names) == 0 {
		w.parametrizations = nil
	}
	return nil
}

// weightParameters returns the local "weight" entry when not parametrized.
func (w *parametrizedWeight) weightParameters() []NamedParameter {
	if w.weight == nil {
		return nil
	}
	return []NamedParameter{{Name: "weight", Param: w.weight}}
}

// weightChildren returns the "parametrizations" child when parametrized.
func (w *parametrizedWeight) weightChildren() []Child {
	if w.parametrizations == nil {
		return nil
	}
	return []Child{{Name: "parametrizations", Module: w.parametrizations}}
}
