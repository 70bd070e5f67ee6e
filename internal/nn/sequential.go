package nn

import (
	"fmt"
	"strconv"

	"github.com/born-ml/lora/internal/tensor"
)

// Sequential is a container module that chains layers together.
//
// Children are named by position ("0", "1", ...), so the weight of the
// second layer is "1.weight".
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewLinear(128, 10),
//	)
//
//	output := model.Forward(input)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies every module in sequence.
//
// Panics if a module does not implement Layer.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := input
	for i, m := range s.modules {
		layer, ok := m.(Layer)
		if !ok {
			panic(fmt.Sprintf("Sequential.Forward: module %d (%T) has no Forward", i, m))
		}
		output = layer.Forward(output)
	}
	return output
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Children returns the modules keyed by position.
func (s *Sequential) Children() []Child {
	children := make([]Child, len(s.modules))
	for i, m := range s.modules {
		children[i] = Child{Name: strconv.Itoa(i), Module: m}
	}
	return children
}

// LocalParameters returns nothing; all parameters live in the children.
func (s *Sequential) LocalParameters() []NamedParameter {
	return nil
}

// ModuleDict is a container of named modules kept in insertion order.
//
// Example:
//
//	model := nn.NewModuleDict()
//	model.Add("embed", nn.NewEmbedding(1000, 64))
//	model.Add("head", nn.NewLinear(64, 1000))
type ModuleDict struct {
	names   []string
	modules map[string]Module
}

// NewModuleDict creates an empty ModuleDict.
func NewModuleDict() *ModuleDict {
	return &ModuleDict{modules: make(map[string]Module)}
}

// Add registers m under name, replacing any module with the same name.
func (d *ModuleDict) Add(name string, m Module) {
	if _, ok := d.modules[name]; !ok {
		d.names = append(d.names, name)
	}
	d.modules[name] = m
}

// Get returns the module registered under name, or nil.
func (d *ModuleDict) Get(name string) Module {
	return d.modules[name]
}

// Children returns the modules in insertion order.
func (d *ModuleDict) Children() []Child {
	children := make([]Child, len(d.names))
	for i, name := range d.names {
		children[i] = Child{Name: name, Module: d.modules[name]}
	}
	return children
}

// LocalParameters returns nothing; all parameters live in the children.
func (d *ModuleDict) LocalParameters() []NamedParameter {
	return nil
}
