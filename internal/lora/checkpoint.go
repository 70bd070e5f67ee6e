package lora

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/lora/internal/nn"
	"github.com/born-ml/lora/internal/serialization"
	"github.com/born-ml/lora/internal/tensor"
)

// SaveLoRA writes the adapter factors of model to a SafeTensors file,
// stored as dtype.
func SaveLoRA(path string, model nn.Module, dtype tensor.DataType, metadata map[string]string) error {
	if err := serialization.WriteSafeTensors(path, LoRAStateDict(model), dtype, metadata); err != nil {
		return fmt.Errorf("saving adapter: %w", err)
	}
	return nil
}

// ReadCheckpoints reads adapter checkpoints concurrently, at most limit at a
// time (unbounded when limit <= 0). The result is in the order of paths.
func ReadCheckpoints(ctx context.Context, paths []string, limit int) ([]*serialization.Checkpoint, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	out := make([]*serialization.Checkpoint, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ckpt, err := serialization.Read(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			out[i] = ckpt
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadMultipleFromFiles reads the checkpoints at paths and loads them as
// with LoadMultiple; adapter i comes from paths[i].
func LoadMultipleFromFiles(ctx context.Context, model nn.Module, paths []string, limit int) error {
	ckpts, err := ReadCheckpoints(ctx, paths, limit)
	if err != nil {
		return err
	}

	stateDicts := make([]nn.StateDict, len(ckpts))
	for i, ckpt := range ckpts {
		stateDicts[i] = ckpt.Tensors
	}
	return LoadMultiple(model, stateDicts)
}
