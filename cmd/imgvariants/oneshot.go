package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imgvariants/internal/services"
	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/variants"
)

var (
	sourceMap  string
	sourceName string
)

var generateCmd = &cobra.Command{
	Use:   "generate <source_file>",
	Short: "Generate the six variants of a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), args[0], "generate", (*services.VariantsService).Generate)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <source_file>",
	Short: "Remove the six variants of a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), args[0], "remove", (*services.VariantsService).Remove)
	},
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, removeCmd} {
		c.Flags().StringVarP(&sourceMap, "map", "m", "", "grouping subdirectory, e.g. an album")
		c.Flags().StringVarP(&sourceName, "name", "n", "", "output name without extension (default: source base name)")
		rootCmd.AddCommand(c)
	}
}

func sourceFromArgs(file string) variants.SourceImage {
	name := sourceName
	if name == "" {
		base := filepath.Base(file)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return variants.SourceImage{
		Filepath: file,
		Map:      sourceMap,
		Name:     name,
	}
}

func runOneShot(
	ctx context.Context,
	file string,
	action string,
	op func(*services.VariantsService, context.Context, variants.SourceImage) error,
) error {
	svc, err := prepareVariantsService(telemetry.NewNoopTelemetrySvc())
	if err != nil {
		return err
	}

	src := sourceFromArgs(file)
	if err := op(svc, ctx, src); err != nil {
		return fmt.Errorf("%s %s: %w", action, file, err)
	}

	slog.Info("Done", "action", action, "source", src.String())
	for _, p := range svc.Paths(src) {
		fmt.Println(p)
	}

	return nil
}
