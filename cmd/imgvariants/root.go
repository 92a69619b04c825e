package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imgvariants/internal/config"
	"github.com/giobyte8/imgvariants/internal/fsutil"
	"github.com/giobyte8/imgvariants/internal/services"
	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/transcoding"
)

var (
	envFile   string
	buildRoot string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "imgvariants",
	Short: "Generate and remove responsive image variants",
	Long: `imgvariants renders every source image into six variants
(full 1920x1080, medium 512px wide, thumbnail 200px wide; each as JPEG
and WebP) under a build root:

  <root>/{full,medium,thumbnail}/<map>/<name>.jpg
  <root>/webp/{full,medium,thumbnail}/<map>/<name>.webp`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}

		if buildRoot != "" {
			cfg.DirBuildRoot = buildRoot
		}

		setupLogging(cfg.LogLevel)
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		config.DefaultEnvFile,
		"dotenv file to load before reading the environment",
	)
	rootCmd.PersistentFlags().StringVar(
		&buildRoot,
		"build-root",
		"",
		"build root directory (overrides DIR_BUILD_ROOT)",
	)
}

func setupLogging(level slog.Level) {
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {

			// Format time to show only the time (HH:MM:SS)
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05"))
			}

			return a
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)
}

func prepareVariantsService(
	telemetrySvc *telemetry.TelemetrySvc,
) (*services.VariantsService, error) {
	svc, err := services.NewVariantsService(
		services.VariantsConfig{
			DirBuildRoot:     cfg.DirBuildRoot,
			DirOriginalsRoot: cfg.DirOriginalsRoot,
		},
		transcoding.NewLilliputTranscoderWithBudget(
			telemetrySvc,
			cfg.TranscodeMemoryBudget,
		),
		fsutil.EnsureDir,
		telemetrySvc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variants service: %w", err)
	}

	return svc, nil
}
