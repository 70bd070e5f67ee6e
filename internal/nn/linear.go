package nn

import (
	"fmt"

	"github.com/born-ml/lora/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// W may be parametrized, in which case Forward uses the computed value.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
//	output := layer.Forward(input)  // [32, 784] -> [32, 128]
type Linear struct {
	parametrizedWeight
	inFeatures  int
	outFeatures int
	bias        *Parameter // [out_features], nil without bias
}

// NewLinear creates a Linear layer with Xavier-initialized weights and a
// zero bias.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return NewLinearWithBias(inFeatures, outFeatures, true)
}

// NewLinearWithBias creates a Linear layer, optionally without bias.
func NewLinearWithBias(inFeatures, outFeatures int, useBias bool) *Linear {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	l := &Linear{
		parametrizedWeight: parametrizedWeight{
			weight: NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape)),
		},
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
	if useBias {
		l.bias = NewParameter("bias", tensor.Zeros(tensor.Shape{outFeatures}))
	}
	return l
}

// Forward computes x @ W.T + b.
//
// Panics if input is not [batch, in_features].
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	output := input.MatMul(l.Weight().Transpose())

	if l.bias != nil {
		b := l.bias.Tensor().Data()
		data := output.Data()
		for i := 0; i < inputShape[0]; i++ {
			row := data[i*l.outFeatures : (i+1)*l.outFeatures]
			for j := range row {
				row[j] += b[j]
			}
		}
	}
	return output
}

// Bias returns the bias parameter, or nil.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// Children returns the "parametrizations" child when the weight is
// parametrized.
func (l *Linear) Children() []Child {
	return l.weightChildren()
}

// LocalParameters returns weight (unless parametrized) and bias.
func (l *Linear) LocalParameters() []NamedParameter {
	params := l.weightParameters()
	if l.bias != nil {
		params = append(params, NamedParameter{Name: "bias", Param: l.bias})
	}
	return params
}
