package serialization

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/born-ml/lora/internal/tensor"
)

// ReadTorch reads a state dict saved with torch.save.
//
// The pickle must hold a dict or OrderedDict of string keys to tensors;
// non-tensor values are skipped.
func ReadTorch(path string) (*Checkpoint, error) {
	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to unpickle %s: %w", path, err)
	}

	entries, err := torchEntries(obj)
	if err != nil {
		return nil, err
	}

	ckpt := newCheckpoint(FormatTorch)
	for _, e := range entries {
		pt, ok := e.value.(*pytorch.Tensor)
		if !ok {
			continue
		}
		t, dt, err := decodeTorchTensor(e.key, pt)
		if err != nil {
			return nil, err
		}
		ckpt.Tensors[e.key] = t
		ckpt.DTypes[e.key] = dt
	}
	return ckpt, nil
}

type torchEntry struct {
	key   string
	value any
}

func torchEntries(obj any) ([]torchEntry, error) {
	var entries []torchEntry
	add := func(k, v any) error {
		key, ok := k.(string)
		if !ok {
			return fmt.Errorf("%w: non-string key %v", ErrUnsupportedPickle, k)
		}
		entries = append(entries, torchEntry{key: key, value: v})
		return nil
	}

	switch d := obj.(type) {
	case *types.OrderedDict:
		for el := d.List.Front(); el != nil; el = el.Next() {
			entry := el.Value.(*types.OrderedDictEntry)
			if err := add(entry.Key, entry.Value); err != nil {
				return nil, err
			}
		}
	case *types.Dict:
		for _, k := range d.Keys() {
			if err := add(k, d.MustGet(k)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: top-level %T is not a state dict", ErrUnsupportedPickle, obj)
	}
	return entries, nil
}

func decodeTorchTensor(name string, pt *pytorch.Tensor) (*tensor.Tensor, tensor.DataType, error) {
	var (
		src []float32
		dt  tensor.DataType
	)
	switch s := pt.Source.(type) {
	case *pytorch.FloatStorage:
		src, dt = s.Data, tensor.Float32
	case *pytorch.HalfStorage:
		src, dt = s.Data, tensor.Float16
	case *pytorch.BFloat16Storage:
		src, dt = s.Data, tensor.BFloat16
	case *pytorch.DoubleStorage:
		src = make([]float32, len(s.Data))
		for i, v := range s.Data {
			src[i] = float32(v)
		}
		dt = tensor.Float64
	default:
		return nil, 0, fmt.Errorf("%w: tensor %q has storage %T", ErrUnsupportedDType, name, pt.Source)
	}

	shape := tensor.Shape(append([]int(nil), pt.Size...))
	out, err := tensor.New(shape)
	if err != nil {
		return nil, 0, fmt.Errorf("tensor %q: %w", name, err)
	}

	// Gather through the stored strides so non-contiguous views decode in
	// row-major order.
	data := out.Data()
	index := make([]int, len(shape))
	for i := range data {
		offset := pt.StorageOffset
		for d := range index {
			offset += index[d] * pt.Stride[d]
		}
		if offset < 0 || offset >= len(src) {
			return nil, 0, &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  name,
				Details: fmt.Sprintf("storage offset %d outside %d elements", offset, len(src)),
			}
		}
		data[i] = src[offset]

		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < shape[d] {
				break
			}
			index[d] = 0
		}
	}
	return out, dt, nil
}
