package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/lora/internal/envconfig"
	"github.com/born-ml/lora/internal/logutil"
)

const version = "v0.1.0"

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lora",
		Short: "Inspect and extract LoRA adapter checkpoints",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
	}

	cobra.EnableCommandSorting = false

	inspectCmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "List the tensors of one or more checkpoints",
		Args:  cobra.MinimumNArgs(1),
		RunE:  InspectHandler,
	}
	inspectCmd.Flags().String("filter", "all", "Tensors to list: all, lora or bias")

	extractCmd := &cobra.Command{
		Use:   "extract IN OUT",
		Short: "Write the adapter tensors of a checkpoint to a SafeTensors file",
		Args:  cobra.ExactArgs(2),
		RunE:  ExtractHandler,
	}
	extractCmd.Flags().Bool("bias", false, "Also extract bias tensors")
	extractCmd.Flags().String("dtype", "", "Storage type: F32, F16, BF16 or F64 (default $LORA_DTYPE or F32)")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lora version %s\n", version)
		},
	}

	rootCmd.AddCommand(
		inspectCmd,
		extractCmd,
		envCmd,
		versionCmd,
	)

	return rootCmd
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func EnvHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var data [][]string
	for _, k := range keys {
		v := vars[k]
		data = append(data, []string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
	return nil
}
