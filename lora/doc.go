// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package lora manages LoRA adapters attached to an nn module tree.
//
// # Overview
//
// Adapters live on a layer as parametrizations.weight.N with the factors
// lora_A and lora_B. This package works on whole models:
//   - Add, AddByName, Merge and Remove attach and detach adapters
//   - Enable and Disable switch every adapter on or off
//   - LoRAParams, BiasParams and ParamsByName select parameters by path
//   - LoadMultiple and Select keep several adapters and switch between them
//   - TieWeights and UntieWeights share an adapted weight between an output
//     head and an embedding
//
// # Basic Usage
//
//	model := nn.NewModuleDict()
//	model.Add("embed", nn.NewEmbedding(32000, 512))
//	model.Add("head", nn.NewLinear(512, 32000))
//
//	if err := lora.Add(model); err != nil {
//	    return err
//	}
//	for name, p := range lora.LoRAParams(model) {
//	    train(name, p)
//	}
//	if err := lora.SaveLoRA("adapter.safetensors", model, tensor.BFloat16, nil); err != nil {
//	    return err
//	}
//
// # Multiple Adapters
//
//	err := lora.LoadMultipleFromFiles(ctx, model, []string{"chat.safetensors", "code.safetensors"})
//	...
//	err = lora.Select(model, 1) // code
package lora
