// Package tensor provides the dense float32 tensor used by model trees and
// adapter checkpoints.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/born-ml/lora/internal/parallel"
)

// DataType is the storage type of a tensor on disk.
//
// Tensors always compute in float32; DataType only matters when encoding to or
// decoding from a checkpoint.
type DataType int

// Supported storage types.
const (
	Float32 DataType = iota
	Float16
	BFloat16
	Float64
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16, BFloat16:
		return 2
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// SafeTensors returns the SafeTensors dtype tag ("F32", "F16", "BF16", "F64").
func (dt DataType) SafeTensors() string {
	switch dt {
	case Float16:
		return "F16"
	case BFloat16:
		return "BF16"
	case Float64:
		return "F64"
	default:
		return "F32"
	}
}

// ParseDataType parses either a SafeTensors tag or a type name.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "F32", "f32", "float32":
		return Float32, nil
	case "F16", "f16", "float16", "half":
		return Float16, nil
	case "BF16", "bf16", "bfloat16":
		return BFloat16, nil
	case "F64", "f64", "float64", "double":
		return Float64, nil
	default:
		return 0, fmt.Errorf("unsupported data type %q", s)
	}
}

// Encode converts float32 values to little-endian bytes of the given type.
// Large tensors are converted in parallel.
func Encode(data []float32, dt DataType) []byte {
	out := make([]byte, len(data)*dt.Size())
	if dt == BFloat16 {
		copy(out, bfloat16.EncodeFloat32(data))
		return out
	}

	parallel.Ranges(len(data), func(start, end int) {
		switch dt {
		case Float32:
			for i := start; i < end; i++ {
				binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(data[i]))
			}
		case Float16:
			for i := start; i < end; i++ {
				binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(data[i]).Bits())
			}
		case Float64:
			for i := start; i < end; i++ {
				binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(float64(data[i])))
			}
		}
	}, parallel.DefaultConfig())
	return out
}

// Decode converts little-endian bytes of the given type to float32 values.
func Decode(b []byte, dt DataType) ([]float32, error) {
	size := dt.Size()
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of %s element size %d", len(b), dt, size)
	}

	n := len(b) / size
	var convert func(i int) float32
	switch dt {
	case Float32:
		convert = func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])) }
	case Float16:
		convert = func(i int) float32 { return float16.Frombits(binary.LittleEndian.Uint16(b[i*2:])).Float32() }
	case BFloat16:
		return bfloat16.DecodeFloat32(b), nil
	case Float64:
		convert = func(i int) float32 { return float32(math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))) }
	default:
		return nil, fmt.Errorf("unsupported data type %s", dt)
	}

	out := make([]float32, n)
	parallel.Ranges(n, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = convert(i)
		}
	}, parallel.DefaultConfig())
	return out, nil
}
