// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/nn"
)

// TestModuleInterface verifies that concrete types implement Module.
func TestModuleInterface(t *testing.T) {
	tests := []struct {
		name   string
		module nn.Module
	}{
		{name: "Linear", module: nn.NewLinear(4, 2)},
		{name: "Embedding", module: nn.NewEmbedding(4, 2)},
		{name: "Sequential", module: nn.NewSequential(nn.NewLinear(4, 2))},
		{name: "ModuleDict", module: nn.NewModuleDict()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visited := 0
			require.NoError(t, nn.Walk(tt.module, func(string, nn.Module) error {
				visited++
				return nil
			}))
			assert.Positive(t, visited)
		})
	}
}

func TestRegisterLoRA(t *testing.T) {
	head := nn.NewLinear(4, 6)
	require.NoError(t, head.RegisterParametrization("weight", nn.LoRAFromLinear(head, nn.LoRAConfig{Rank: 2, Alpha: 4})))

	var names []string
	for name := range nn.NamedParameters(head) {
		names = append(names, name)
	}
	assert.Equal(t, []string{
		"bias",
		"parametrizations.weight.original",
		"parametrizations.weight.0.lora_A",
		"parametrizations.weight.0.lora_B",
	}, names)
}
