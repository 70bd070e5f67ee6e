package lora_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/nn"
)

func TestNameIsLoRA(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"model.parametrizations.weight.0.lora_A", true},
		{"model.parametrizations.weight.0.lora_B", true},
		{"parametrizations.weight.0.lora_B", true},
		{"a.b.parametrizations.weight.1.lora_A", true},
		{"model.parametrizations.weight.original", false},
		{"model.parametrizations.weight.0.lora_C", false},
		{"model.params.weight.0.lora_A", false},
		{"weight.0.lora_A", false},
		{"model.bias", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lora.NameIsLoRA(tt.name), tt.name)
	}
}

func TestNameIsBias(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"layer.0.bias", true},
		{"bias", true},
		{"layer.0.weight", false},
		{"layer.bias.weight", false},
		{"layer.0.bias_", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lora.NameIsBias(tt.name), tt.name)
	}
}

func collectNames(seq func(func(string, *nn.Parameter) bool)) []string {
	var out []string
	for name := range seq {
		out = append(out, name)
	}
	return out
}

func TestParamsByName(t *testing.T) {
	model, _, _ := newTinyLM(t)

	wantLoRA := []string{
		"embed.parametrizations.weight.0.lora_A",
		"embed.parametrizations.weight.0.lora_B",
		"head.parametrizations.weight.0.lora_A",
		"head.parametrizations.weight.0.lora_B",
	}

	seq := lora.LoRAParams(model)
	if diff := cmp.Diff(wantLoRA, collectNames(seq)); diff != "" {
		t.Errorf("LoRAParams mismatch (-want +got):\n%s", diff)
	}
	// Ranging again walks the model again.
	if diff := cmp.Diff(wantLoRA, collectNames(seq)); diff != "" {
		t.Errorf("second pass mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"head.bias"}, collectNames(lora.BiasParams(model)))
	assert.Len(t, collectNames(lora.ParamsByName(model, nil)), 7)
}

func TestParamsByName_ConventionMismatchIsEmpty(t *testing.T) {
	model := nn.NewSequential(nn.NewLinearWithBias(3, 3, false))

	assert.Empty(t, collectNames(lora.LoRAParams(model)))
	assert.Empty(t, collectNames(lora.BiasParams(model)))
	assert.Empty(t, lora.LoRAStateDict(model))
}

func TestParamsByName_WithShapes(t *testing.T) {
	model, _, _ := newTinyLM(t)

	var buf bytes.Buffer
	for range lora.LoRAParams(model, lora.WithShapes(&buf)) {
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"embed.parametrizations.weight.0.lora_A [6 2]",
		"embed.parametrizations.weight.0.lora_B [2 4]",
		"head.parametrizations.weight.0.lora_A [2 4]",
		"head.parametrizations.weight.0.lora_B [6 2]",
	}, lines)
}

func TestLoRAStateDict(t *testing.T) {
	model, _, head := newTinyLM(t)

	sd := lora.LoRAStateDict(model)
	assert.Len(t, sd, 4)
	assert.Same(t, adapterOf(t, head).A().Tensor(), sd["head.parametrizations.weight.0.lora_A"])
	assert.NotContains(t, sd, "head.bias")
	assert.NotContains(t, sd, "head.parametrizations.weight.original")
}
