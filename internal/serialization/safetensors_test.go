package serialization

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/internal/tensor"
)

func testStateDict(t *testing.T) map[string]*tensor.Tensor {
	t.Helper()
	a, err := tensor.FromSlice([]float32{0.5, -1, 2, 3.25}, tensor.Shape{1, 4})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	require.NoError(t, err)
	return map[string]*tensor.Tensor{
		"fc.parametrizations.weight.0.lora_A": a,
		"fc.parametrizations.weight.0.lora_B": b,
	}
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	sd := testStateDict(t)

	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float16, tensor.BFloat16} {
		t.Run(dt.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "adapter.safetensors")
			require.NoError(t, WriteSafeTensors(path, sd, dt, map[string]string{"rank": "1"}))

			ckpt, err := Read(path)
			require.NoError(t, err)

			assert.Equal(t, FormatSafeTensors, ckpt.Format)
			assert.Equal(t, map[string]string{"rank": "1"}, ckpt.Metadata)
			assert.Equal(t, []string{
				"fc.parametrizations.weight.0.lora_A",
				"fc.parametrizations.weight.0.lora_B",
			}, ckpt.Names())

			for name, want := range sd {
				got := ckpt.Tensors[name]
				require.NotNil(t, got, name)
				assert.Equal(t, dt, ckpt.DTypes[name])
				// All test values are exactly representable in 16 bits.
				assert.True(t, want.AllClose(got, 0), "%s: %v != %v", name, want.Data(), got.Data())
			}
		})
	}
}

func TestReadSafeTensors_OutOfBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	header := []byte(`{"w":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`)

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint64(len(header))))
	_, err = f.Write(header)
	require.NoError(t, err)
	_, err = f.Write([]byte{0, 0, 0, 0}) // only one float of data
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadSafeTensors(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "out_of_bounds", verr.Type)
	assert.Equal(t, "w", verr.Tensor)
}

func TestReadSafeTensors_UnsupportedDType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "int.safetensors")
	header := []byte(`{"w":{"dtype":"I8","shape":[1],"data_offsets":[0,1]}}`)

	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, 7)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	_, err := ReadSafeTensors(path)
	require.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"adapter.safetensors", FormatSafeTensors, false},
		{"lora.PT", FormatTorch, false},
		{"pytorch_model.bin", FormatTorch, false},
		{"consolidated.00.pth", FormatTorch, false},
		{"model.gguf", 0, true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownFormat, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestReadTorch_NotAPickle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapter.pt")
	require.NoError(t, os.WriteFile(path, []byte("not a pickle"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
}
