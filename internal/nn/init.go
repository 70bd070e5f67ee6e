package nn

import (
	"math"

	"github.com/born-ml/lora/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	return tensor.Uniform(shape, math.Sqrt(6.0/float64(fanIn+fanOut)))
}

// KaimingUniform initializes a tensor from U(-bound, bound) with
//
//	bound = gain * sqrt(3 / fan_in),  gain = sqrt(2 / (1 + a²))
//
// where fan_in is the product of all dimensions after the first.
// With a = sqrt(5) this is the default init of linear weights, and the
// init of LoRA factor A.
func KaimingUniform(shape tensor.Shape, a float64) *tensor.Tensor {
	gain := math.Sqrt(2.0 / (1.0 + a*a))
	bound := gain * math.Sqrt(3.0/float64(shape.FanIn()))
	return tensor.Uniform(shape, bound)
}
