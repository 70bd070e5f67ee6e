package nn

import (
	"github.com/born-ml/lora/internal/tensor"
)

// Parameter is a named, learnable tensor.
//
// Parameters have reference identity: two layers holding the same *Parameter
// share storage, and in-place writes through one are visible through the
// other. This is how weights are tied.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
type Parameter struct {
	name   string         // Local name (e.g., "weight", "lora_A")
	tensor *tensor.Tensor // The parameter tensor
}

// NewParameter creates a new parameter wrapping t.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter's local name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Clone returns a new parameter with the same name and a deep copy of the
// tensor. The clone shares nothing with p.
func (p *Parameter) Clone() *Parameter {
	return NewParameter(p.name, p.tensor.Clone())
}
