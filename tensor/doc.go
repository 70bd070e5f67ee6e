// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 tensor used by models and adapter
// checkpoints.
//
// Tensors always compute in float32. A DataType only selects how a tensor is
// stored on disk:
//
//	w, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    return err
//	}
//	y := w.MatMul(w.Transpose())
package tensor
