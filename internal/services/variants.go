package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/giobyte8/imgvariants/internal/fsutil"
	"github.com/giobyte8/imgvariants/internal/models"
	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/telemetry/metrics"
	"github.com/giobyte8/imgvariants/internal/transcoding"
	"github.com/giobyte8/imgvariants/internal/variants"
)

type VariantsConfig struct {

	// Root directory under which every variant directory is created
	DirBuildRoot string

	// Optional. Relative request paths are resolved against it
	DirOriginalsRoot string
}

// VariantsService generates and removes the six variants (two
// encodings, three sizes) of a source image.
//
// Each call fans out one goroutine per variant and waits until all of
// them settle. The first failure is returned; siblings are not
// cancelled and there is no rollback, so a failed Generate may leave
// some variants on disk.
type VariantsService struct {
	config     VariantsConfig
	transcoder transcoding.Transcoder
	ensureDir  fsutil.DirEnsurer
	telemetry  *telemetry.TelemetrySvc
}

func NewVariantsService(
	config VariantsConfig,
	transcoder transcoding.Transcoder,
	ensureDir fsutil.DirEnsurer,
	telemetrySvc *telemetry.TelemetrySvc,
) (*VariantsService, error) {
	if config.DirBuildRoot == "" {
		return nil, fmt.Errorf("build root directory cannot be empty in config")
	}

	buildRoot, err := filepath.Abs(config.DirBuildRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build root: %w", err)
	}
	config.DirBuildRoot = buildRoot

	if ensureDir == nil {
		ensureDir = fsutil.EnsureDir
	}
	if telemetrySvc == nil {
		telemetrySvc = telemetry.NewNoopTelemetrySvc()
	}

	return &VariantsService{
		config:     config,
		transcoder: transcoder,
		ensureDir:  ensureDir,
		telemetry:  telemetrySvc,
	}, nil
}

// Generate writes all six variants of src, overwriting previous ones.
func (s *VariantsService) Generate(
	ctx context.Context,
	src variants.SourceImage,
) error {
	if err := src.Validate(); err != nil {
		return err
	}

	srcPath, err := filepath.Abs(src.Filepath)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}

	slog.Debug("Generating variants", "source", src.String())
	return s.forEachVariant(ctx, func(c variants.Combination) error {
		destPath := s.destPath(src, c)
		slog.Debug(
			"Generating variant",
			"encoding", c.Encoding,
			"variant", c.Variant,
			"dest", destPath,
		)

		if err := s.ensureDir(filepath.Dir(destPath)); err != nil {
			return err
		}

		return s.transcoder.Transcode(
			ctx,
			srcPath,
			destPath,
			variants.DimensionsOf(c.Variant),
		)
	})
}

// Remove deletes all six variants of src. Variants that don't exist
// are ignored, so removing twice is fine.
func (s *VariantsService) Remove(
	ctx context.Context,
	src variants.SourceImage,
) error {
	if err := src.Validate(); err != nil {
		return err
	}

	slog.Debug("Removing variants", "source", src.String())
	return s.forEachVariant(ctx, func(c variants.Combination) error {
		destPath := s.destPath(src, c)

		err := os.Remove(destPath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return &variants.DeletionError{Path: destPath, Err: err}
		}

		slog.Debug("Variant removed", "path", destPath)
		s.telemetry.Metrics().Increment(
			metrics.VariantRemoved,
			map[string]string{
				"encoding": c.Encoding.String(),
				"variant":  c.Variant.String(),
			},
		)
		return nil
	})
}

// Paths returns the six destination paths of src, in the order of
// variants.Combinations.
func (s *VariantsService) Paths(src variants.SourceImage) []string {
	combos := variants.Combinations()
	paths := make([]string, 0, len(combos))
	for _, c := range combos {
		paths = append(paths, s.destPath(src, c))
	}

	return paths
}

func (s *VariantsService) ProcessGenRequest(
	ctx context.Context,
	req models.VariantsRequest,
) error {
	slog.Info(
		"Processing variants generation request",
		"requestId", req.RequestId,
		"filePath", req.FilePath,
		"map", req.Map,
	)

	return s.Generate(ctx, s.sourceFromRequest(req))
}

func (s *VariantsService) ProcessDelRequest(
	ctx context.Context,
	req models.VariantsRequest,
) error {
	slog.Info(
		"Processing variants removal request",
		"requestId", req.RequestId,
		"filePath", req.FilePath,
		"map", req.Map,
	)

	return s.Remove(ctx, s.sourceFromRequest(req))
}

func (s *VariantsService) sourceFromRequest(
	req models.VariantsRequest,
) variants.SourceImage {
	src := variants.SourceImage{
		Filepath: req.FilePath,
		Map:      req.Map,
		Name:     req.Name,
	}

	if src.Filepath != "" &&
		!filepath.IsAbs(src.Filepath) &&
		s.config.DirOriginalsRoot != "" {
		src.Filepath = filepath.Join(s.config.DirOriginalsRoot, src.Filepath)
	}

	if src.Name == "" && req.FilePath != "" {
		baseName := filepath.Base(req.FilePath)
		src.Name = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	}

	return src
}

func (s *VariantsService) destPath(
	src variants.SourceImage,
	c variants.Combination,
) string {
	return variants.Resolve(s.config.DirBuildRoot, src, c.Encoding, c.Variant)
}

// forEachVariant runs task concurrently for every (encoding, variant)
// combination and returns the first error once all tasks finished.
func (s *VariantsService) forEachVariant(
	ctx context.Context,
	task func(c variants.Combination) error,
) error {
	var g errgroup.Group

	for _, c := range variants.Combinations() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return task(c)
		})
	}

	return g.Wait()
}
