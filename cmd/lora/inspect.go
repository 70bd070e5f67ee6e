package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/lora/internal/envconfig"
	"github.com/born-ml/lora/internal/lora"
	"github.com/born-ml/lora/internal/serialization"
)

func tensorKind(name string) string {
	switch {
	case lora.NameIsLoRA(name):
		return "lora"
	case lora.NameIsBias(name):
		return "bias"
	default:
		return "-"
	}
}

func filterFor(s string) (lora.NameFilter, error) {
	switch s {
	case "all", "":
		return nil, nil
	case "lora":
		return lora.NameIsLoRA, nil
	case "bias":
		return lora.NameIsBias, nil
	default:
		return nil, fmt.Errorf("unknown filter %q", s)
	}
}

func InspectHandler(cmd *cobra.Command, args []string) error {
	flag, err := cmd.Flags().GetString("filter")
	if err != nil {
		return err
	}
	filter, err := filterFor(flag)
	if err != nil {
		return err
	}

	ckpts, err := lora.ReadCheckpoints(cmd.Context(), args, envconfig.MaxReaders())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, ckpt := range ckpts {
		if len(args) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%s)\n", args[i], ckpt.Format)
		}
		renderTable(out, []string{"NAME", "KIND", "DTYPE", "SHAPE"}, inspectRows(ckpt, filter))
	}
	return nil
}

func inspectRows(ckpt *serialization.Checkpoint, filter lora.NameFilter) [][]string {
	var data [][]string
	for _, name := range ckpt.Names() {
		if filter != nil && !filter(name) {
			continue
		}
		data = append(data, []string{
			name,
			tensorKind(name),
			ckpt.DTypes[name].String(),
			ckpt.Tensors[name].Shape().String(),
		})
	}
	return data
}
