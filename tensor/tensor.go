// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/lora/internal/tensor"

// Tensor is a dense row-major float32 tensor.
type Tensor = tensor.Tensor

// Shape lists the size of each dimension.
type Shape = tensor.Shape

// DataType is the on-disk storage type of a tensor.
type DataType = tensor.DataType

// Storage types.
const (
	Float32  = tensor.Float32
	Float16  = tensor.Float16
	BFloat16 = tensor.BFloat16
	Float64  = tensor.Float64
)

// New creates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// Zeros creates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Randn creates a tensor of standard normal samples.
func Randn(shape Shape) *Tensor {
	return tensor.Randn(shape)
}

// ParseDataType parses a SafeTensors dtype tag such as "BF16" or a type name
// such as "float16".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}
