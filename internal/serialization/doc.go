// Package serialization reads and writes adapter and model checkpoints.
//
// Two on-disk formats are understood:
//
//	SafeTensors (.safetensors), read and write:
//	  [8 bytes: header size (uint64 LE)]
//	  [header: JSON, tensor name -> {dtype, shape, data_offsets}, optional __metadata__]
//	  [tensor data: raw little-endian bytes]
//
//	PyTorch pickles (.pt, .pth, .bin, .ckpt), read only.
//
// Tensors are always decoded to float32; the stored data type is kept in
// the returned Checkpoint for inspection.
//
// Example usage:
//
//	// Save an adapter state dict
//	err := serialization.WriteSafeTensors("adapter.safetensors", sd, tensor.Float16, nil)
//
//	// Load any supported checkpoint
//	ckpt, err := serialization.Read("adapter.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = nn.LoadStateDict(model, ckpt.Tensors, false)
package serialization
