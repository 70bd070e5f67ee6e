// Package lora implements the utility layer around LoRA parametrizations on
// an nn module tree.
//
// Every function here is a short traversal over a caller-owned model:
//
//   - Enable, Disable: toggle every adapter in the tree
//   - ParamsByName, LoRAParams, BiasParams, LoRAStateDict: filter named
//     parameters by path convention
//   - LoadMultiple, Select: keep several trained adapters per layer and
//     switch between them by index
//   - TieWeights, UntieWeights: share a base weight and adapter between an
//     output projection and an embedding
//   - Add, AddByName, Merge, Remove: attach and detach adapters
//
// The model is mutated in place and is not safe for concurrent use.
//
// Example:
//
//	model := buildModel()
//	if err := lora.Add(model); err != nil {
//	    log.Fatal(err)
//	}
//	if err := lora.LoadMultiple(model, []nn.StateDict{chat, code}); err != nil {
//	    log.Fatal(err)
//	}
//	if err := lora.Select(model, 1); err != nil { // use the "code" adapter
//	    log.Fatal(err)
//	}
package lora
