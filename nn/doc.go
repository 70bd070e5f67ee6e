// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the module tree that adapters attach to.
//
// # Overview
//
// A model is a tree of modules. Every parameter has a dotted path built from
// the names of the modules leading to it:
//
//	model := nn.NewModuleDict()
//	model.Add("embed", nn.NewEmbedding(32000, 512))
//	model.Add("head", nn.NewLinear(512, 32000))
//
//	for name, p := range nn.NamedParameters(model) {
//	    fmt.Println(name, p.Tensor().Shape())
//	}
//	// embed.weight [32000 512]
//	// head.weight [32000 512]
//	// head.bias [32000]
//
// # Parametrizations
//
// Registering a parametrization on a layer's weight moves the stored weight
// to parametrizations.weight.original and computes the effective weight
// through the chain. A LoRAParametrization adds a low-rank update to it:
//
//	head := nn.NewLinear(512, 32000)
//	err := head.RegisterParametrization("weight", nn.LoRAFromLinear(head, nn.LoRAConfig{Rank: 8, Alpha: 16}))
//	// head.parametrizations.weight.original
//	// head.parametrizations.weight.0.lora_A
//	// head.parametrizations.weight.0.lora_B
package nn
