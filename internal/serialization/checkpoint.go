package serialization

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/born-ml/lora/internal/tensor"
)

// Format identifies a checkpoint file format.
type Format int

// Supported checkpoint formats.
const (
	FormatSafeTensors Format = iota
	FormatTorch
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatSafeTensors:
		return "safetensors"
	case FormatTorch:
		return "torch"
	default:
		return "unknown"
	}
}

// Checkpoint is a decoded state dict.
type Checkpoint struct {
	Format   Format
	Tensors  map[string]*tensor.Tensor  // Decoded float32 tensors by path
	DTypes   map[string]tensor.DataType // Stored data type by path
	Metadata map[string]string          // SafeTensors __metadata__, if any
}

func newCheckpoint(f Format) *Checkpoint {
	return &Checkpoint{
		Format:  f,
		Tensors: make(map[string]*tensor.Tensor),
		DTypes:  make(map[string]tensor.DataType),
	}
}

// Names returns the tensor paths in sorted order.
func (c *Checkpoint) Names() []string {
	names := make([]string, 0, len(c.Tensors))
	for name := range c.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return FormatSafeTensors, nil
	case ".pt", ".pth", ".bin", ".ckpt":
		return FormatTorch, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Read loads a checkpoint in any supported format.
func Read(path string) (*Checkpoint, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTorch:
		return ReadTorch(path)
	default:
		return ReadSafeTensors(path)
	}
}
