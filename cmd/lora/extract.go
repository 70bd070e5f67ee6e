package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/lora/internal/envconfig"
	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/serialization"
	"github.com/born-ml/lora/internal/tensor"
)

func ExtractHandler(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	withBias, err := cmd.Flags().GetBool("bias")
	if err != nil {
		return err
	}
	dtype := envconfig.DType()
	if s, _ := cmd.Flags().GetString("dtype"); s != "" {
		if dtype, err = tensor.ParseDataType(s); err != nil {
			return err
		}
	}

	ckpt, err := serialization.Read(in)
	if err != nil {
		return err
	}

	keep := make(map[string]*tensor.Tensor)
	for name, t := range ckpt.Tensors {
		if lora.NameIsLoRA(name) || (withBias && lora.NameIsBias(name)) {
			keep[name] = t
		}
	}
	if len(keep) == 0 {
		return fmt.Errorf("no adapter tensors in %s", in)
	}

	if err := serialization.WriteSafeTensors(out, keep, dtype, ckpt.Metadata); err != nil {
		return err
	}
	slog.Info("extracted adapter", "source", in, "output", out, "tensors", len(keep), "skipped", len(ckpt.Tensors)-len(keep), "dtype", dtype)
	return nil
}
