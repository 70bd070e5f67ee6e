package lora

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/born-ml/lora/internal/nn"
)

// Path segments of the naming convention.
const (
	parametrizationsSegment = "parametrizations"
	loraASegment            = "lora_A"
	loraBSegment            = "lora_B"
	biasSegment             = "bias"
)

// NameFilter selects parameters by dotted path.
type NameFilter func(name string) bool

// NameIsLoRA reports whether name is an adapter factor path: at least four
// segments, the fourth from last is "parametrizations" and the last is
// "lora_A" or "lora_B", e.g. "fc.parametrizations.weight.0.lora_A".
func NameIsLoRA(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) < 4 || parts[len(parts)-4] != parametrizationsSegment {
		return false
	}
	last := parts[len(parts)-1]
	return last == loraASegment || last == loraBSegment
}

// NameIsBias reports whether the last segment of name is "bias".
func NameIsBias(name string) bool {
	parts := strings.Split(name, ".")
	return parts[len(parts)-1] == biasSegment
}

// Option configures ParamsByName.
type Option func(*options)

type options struct {
	shapes io.Writer
}

// WithShapes writes "name shape" for every yielded parameter to w.
func WithShapes(w io.Writer) Option {
	return func(o *options) {
		o.shapes = w
	}
}

// ParamsByName returns a lazy sequence of the parameters of model whose path
// passes filter. A nil filter passes everything. The sequence walks the model
// afresh each time it is ranged over.
func ParamsByName(model nn.Module, filter NameFilter, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(string, *nn.Parameter) bool) {
		for name, p := range nn.NamedParameters(model) {
			if filter != nil && !filter(name) {
				continue
			}
			if o.shapes != nil {
				_, _ = fmt.Fprintln(o.shapes, name, p.Tensor().Shape())
			}
			if !yield(name, p) {
				return
			}
		}
	}
}

// LoRAParams returns the adapter factors of model.
func LoRAParams(model nn.Module, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	return ParamsByName(model, NameIsLoRA, opts...)
}

// BiasParams returns the biases of model.
func BiasParams(model nn.Module, opts ...Option) iter.Seq2[string, *nn.Parameter] {
	return ParamsByName(model, NameIsBias, opts...)
}

// LoRAStateDict returns the adapter factors of model keyed by path, for
// saving an adapter without its base model. Tensors are shared, not copied.
func LoRAStateDict(model nn.Module) nn.StateDict {
	sd := make(nn.StateDict)
	for name, t := range nn.StateDictOf(model) {
		if NameIsLoRA(name) {
			sd[name] = t
		}
	}
	return sd
}
