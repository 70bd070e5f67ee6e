package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/lora/internal/tensor"
)

// maxHeaderSize bounds the JSON header of a SafeTensors file.
const maxHeaderSize = 100 * 1024 * 1024

// SafeTensorInfo describes a tensor in the SafeTensors header.
type SafeTensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// SafeTensorsHeader is the JSON header of a SafeTensors file.
type SafeTensorsHeader struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorInfo
}

// UnmarshalJSON splits "__metadata__" from the tensor entries.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]SafeTensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// ReadSafeTensors reads a SafeTensors file into memory.
func ReadSafeTensors(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := validateHeader(&header, int64(len(data))); err != nil {
		return nil, err
	}

	ckpt := newCheckpoint(FormatSafeTensors)
	ckpt.Metadata = header.Metadata

	for name, info := range header.Tensors {
		dt, err := tensor.ParseDataType(info.DType)
		if err != nil {
			return nil, fmt.Errorf("%w: tensor %q: %s", ErrUnsupportedDType, name, info.DType)
		}

		t, err := decodeSafeTensor(name, info, dt, data)
		if err != nil {
			return nil, err
		}
		ckpt.Tensors[name] = t
		ckpt.DTypes[name] = dt
	}

	return ckpt, nil
}

func decodeSafeTensor(name string, info SafeTensorInfo, dt tensor.DataType, data []byte) (*tensor.Tensor, error) {
	start, end := info.DataOffsets[0], info.DataOffsets[1]

	shape := make(tensor.Shape, len(info.Shape))
	for i, dim := range info.Shape {
		shape[i] = int(dim)
	}
	if want := int64(shape.NumElements() * dt.Size()); want != end-start {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v needs %d bytes, data has %d", shape, want, end-start),
		}
	}

	values, err := tensor.Decode(data[start:end], dt)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}
	return tensor.FromSlice(values, shape)
}

// SafeTensorsWriter writes tensors in SafeTensors format.
type SafeTensorsWriter struct {
	file   *os.File
	dtype  tensor.DataType
	closed bool
}

// NewSafeTensorsWriter creates a SafeTensors file writer that stores tensors
// as dtype.
func NewSafeTensorsWriter(path string, dtype tensor.DataType) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &SafeTensorsWriter{
		file:  file,
		dtype: dtype,
	}, nil
}

// WriteSafeTensors writes tensors to a SafeTensors file.
func WriteSafeTensors(path string, tensors map[string]*tensor.Tensor, dtype tensor.DataType, metadata map[string]string) error {
	writer, err := NewSafeTensorsWriter(path, dtype)
	if err != nil {
		return err
	}

	if err := writer.WriteStateDict(tensors, metadata); err != nil {
		_ = writer.Close() // Best effort close
		return err
	}
	return writer.Close()
}

// WriteStateDict writes a state dictionary.
//
// Tensors are written in alphabetical order by name.
func (w *SafeTensorsWriter) WriteStateDict(stateDict map[string]*tensor.Tensor, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	tensorNames := make([]string, 0, len(stateDict))
	for name := range stateDict {
		tensorNames = append(tensorNames, name)
	}
	sort.Strings(tensorNames)

	header := make(map[string]any, len(stateDict)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	encoded := make([][]byte, len(tensorNames))
	var currentOffset int64
	for i, name := range tensorNames {
		t := stateDict[name]
		encoded[i] = tensor.Encode(t.Data(), w.dtype)
		size := int64(len(encoded[i]))

		shape := make([]int64, len(t.Shape()))
		for j, dim := range t.Shape() {
			shape[j] = int64(dim)
		}

		header[name] = SafeTensorInfo{
			DType:       w.dtype.SafeTensors(),
			Shape:       shape,
			DataOffsets: [2]int64{currentOffset, currentOffset + size},
		}
		currentOffset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, name := range tensorNames {
		if _, err := w.file.Write(encoded[i]); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the writer and the underlying file.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
