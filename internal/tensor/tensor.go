package tensor

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Tensor is a dense row-major float32 tensor.
//
// A Tensor owns its storage unless it was produced by Reshape, in which case
// it shares storage with the source. Mutating Data() is visible to every
// tensor that shares that storage.
//
// Example:
//
//	w, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := w.MatMul(w.Transpose())
type Tensor struct {
	shape Shape
	data  []float32
}

// New creates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}, nil
}

// Zeros creates a zero-filled tensor and panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Uniform creates a tensor with values drawn from U(-bound, bound).
func Uniform(shape Shape, bound float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		//nolint:gosec // math/rand is appropriate for ML weight initialization
		t.data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		//nolint:gosec // math/rand is appropriate for ML weight initialization
		t.data[i] = float32(rand.NormFloat64())
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage.
// WARNING: Direct access to underlying memory. Writes are visible to every
// holder of this tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Clone returns a deep copy with independent storage.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// CopyFrom overwrites the tensor's values in place with src's values.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("shape mismatch: expected %v, got %v", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// Reshape returns a view with a new shape sharing this tensor's storage.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v to %v", t.shape, shape)
	}
	return &Tensor{shape: shape.Clone(), data: t.data}, nil
}

// Transpose returns a copy of a 2D tensor with its axes swapped.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Transpose: expected 2D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out
}

// MatMul computes t @ other for 2D tensors.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(fmt.Sprintf("MatMul: expected 2D tensors, got %v and %v", t.shape, other.shape))
	}
	if t.shape[1] != other.shape[0] {
		panic(fmt.Sprintf("MatMul: inner dimensions differ: %v @ %v", t.shape, other.shape))
	}

	out := Zeros(Shape{t.shape[0], other.shape[1]})
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, t.general(), other.general(), 0, out.general())
	return out
}

// Add returns t + other for tensors of equal shape.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.AddScaled(other, 1)
}

// AddScaled returns t + alpha*other for tensors of equal shape.
func (t *Tensor) AddScaled(other *Tensor, alpha float32) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("Add: shape mismatch: %v vs %v", t.shape, other.shape))
	}
	out := t.Clone()
	blas32.Axpy(alpha, other.vector(), out.vector())
	return out
}

// Scale returns alpha*t.
func (t *Tensor) Scale(alpha float32) *Tensor {
	out := t.Clone()
	blas32.Scal(alpha, out.vector())
	return out
}

// Rows gathers rows of a 2D tensor by index.
// Panics if any index is out of bounds.
func (t *Tensor) Rows(indices []int) *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Rows: expected 2D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(Shape{len(indices), cols})
	for i, idx := range indices {
		if idx < 0 || idx >= rows {
			panic(fmt.Sprintf("Rows: index %d out of range [0, %d)", idx, rows))
		}
		copy(out.data[i*cols:(i+1)*cols], t.data[idx*cols:(idx+1)*cols])
	}
	return out
}

// AllClose reports whether both tensors have the same shape and every pair
// of elements differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		if math.Abs(float64(t.data[i]-other.data[i])) > tol {
			return false
		}
	}
	return true
}

func (t *Tensor) general() blas32.General {
	return blas32.General{
		Rows:   t.shape[0],
		Cols:   t.shape[1],
		Data:   t.data,
		Stride: t.shape[1],
	}
}

func (t *Tensor) vector() blas32.Vector {
	return blas32.Vector{N: len(t.data), Data: t.data, Inc: 1}
}
