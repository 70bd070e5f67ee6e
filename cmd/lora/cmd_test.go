package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lora/internal/serialization"
	"github.com/born-ml/lora/internal/tensor"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCLI()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeCheckpoint(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.safetensors")
	sd := map[string]*tensor.Tensor{
		"fc.parametrizations.weight.original": tensor.Zeros(tensor.Shape{3, 2}),
		"fc.parametrizations.weight.0.lora_A": tensor.Zeros(tensor.Shape{1, 2}),
		"fc.parametrizations.weight.0.lora_B": tensor.Zeros(tensor.Shape{3, 1}),
		"fc.bias":                             tensor.Zeros(tensor.Shape{3}),
	}
	require.NoError(t, serialization.WriteSafeTensors(path, sd, tensor.Float16, map[string]string{"rank": "1"}))
	return path
}

func TestInspect(t *testing.T) {
	t.Setenv("LORA_DEBUG", "")
	path := writeCheckpoint(t)

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `fc\.parametrizations\.weight\.0\.lora_A\s+lora\s+float16\s+\[1 2\]`, out)
	assert.Regexp(t, `fc\.bias\s+bias\s+float16\s+\[3\]`, out)
	assert.Regexp(t, `fc\.parametrizations\.weight\.original\s+-\s+float16\s+\[3 2\]`, out)

	out, err = run(t, "inspect", "--filter", "bias", path)
	require.NoError(t, err)
	assert.Contains(t, out, "fc.bias")
	assert.NotContains(t, out, "lora_A")

	_, err = run(t, "inspect", "--filter", "weights", path)
	require.Error(t, err)
}

func TestInspect_MultipleFiles(t *testing.T) {
	a, b := writeCheckpoint(t), writeCheckpoint(t)

	out, err := run(t, "inspect", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, a+" (safetensors)")
	assert.Contains(t, out, b+" (safetensors)")
}

func TestExtract(t *testing.T) {
	t.Setenv("LORA_DTYPE", "")
	in := writeCheckpoint(t)
	out := filepath.Join(t.TempDir(), "adapter.safetensors")

	_, err := run(t, "extract", in, out)
	require.NoError(t, err)

	ckpt, err := serialization.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fc.parametrizations.weight.0.lora_A",
		"fc.parametrizations.weight.0.lora_B",
	}, ckpt.Names())
	assert.Equal(t, tensor.Float32, ckpt.DTypes["fc.parametrizations.weight.0.lora_A"])
	assert.Equal(t, map[string]string{"rank": "1"}, ckpt.Metadata)

	_, err = run(t, "extract", "--bias", "--dtype", "BF16", in, out)
	require.NoError(t, err)

	ckpt, err = serialization.Read(out)
	require.NoError(t, err)
	assert.Contains(t, ckpt.Names(), "fc.bias")
	assert.Equal(t, tensor.BFloat16, ckpt.DTypes["fc.bias"])
}

func TestExtract_NoAdapters(t *testing.T) {
	in := filepath.Join(t.TempDir(), "plain.safetensors")
	require.NoError(t, serialization.WriteSafeTensors(in, map[string]*tensor.Tensor{
		"fc.weight": tensor.Zeros(tensor.Shape{2, 2}),
	}, tensor.Float32, nil))

	_, err := run(t, "extract", in, filepath.Join(t.TempDir(), "out.safetensors"))
	require.ErrorContains(t, err, "no adapter tensors")
}

func TestVersionAndEnv(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lora version "+version+"\n", out)

	t.Setenv("LORA_MAX_READERS", "8")
	out, err = run(t, "env")
	require.NoError(t, err)
	assert.Regexp(t, `LORA_MAX_READERS\s+8`, out)
}
