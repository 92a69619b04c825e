package services

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"

	"github.com/giobyte8/imgvariants/internal/fsutil"
	"github.com/giobyte8/imgvariants/internal/models"
	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/telemetry/metrics"
	"github.com/giobyte8/imgvariants/internal/transcoding"
	"github.com/giobyte8/imgvariants/internal/variants"
)

func decodeFormat(t *testing.T, path string) (image.Config, string) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg, format
}

func newLilliputFixture(t *testing.T, srcW, srcH int) fixture {
	t.Helper()

	dir := t.TempDir()
	buildRoot := filepath.Join(dir, "build")
	srcPath := filepath.Join(dir, "sunset.png")
	writeSource(t, srcPath, srcW, srcH)

	rec := &recordingMetrics{}
	telemetrySvc := telemetry.NewTelemetrySvcWith(rec)
	svc, err := NewVariantsService(
		VariantsConfig{
			DirBuildRoot:     buildRoot,
			DirOriginalsRoot: dir,
		},
		transcoding.NewLilliputTranscoder(telemetrySvc),
		fsutil.EnsureDir,
		telemetrySvc,
	)
	require.NoError(t, err)

	return fixture{
		buildRoot: buildRoot,
		src: variants.SourceImage{
			Filepath: srcPath,
			Map:      "landscapes",
			Name:     "sunset",
		},
		svc:     svc,
		metrics: rec,
	}
}

func TestGenerate_LilliputWritesRealVariants(t *testing.T) {
	f := newLilliputFixture(t, 800, 600)

	require.NoError(t, f.svc.Generate(context.Background(), f.src))
	require.Equal(t, sunsetFiles, listFiles(t, f.buildRoot))

	tests := []struct {
		file       string
		wantFormat string
		wantW      int
		wantH      int
	}{
		{"full/landscapes/sunset.jpg", "jpeg", 1920, 1080},
		{"medium/landscapes/sunset.jpg", "jpeg", 512, 384},
		{"thumbnail/landscapes/sunset.jpg", "jpeg", 200, 150},
		{"webp/full/landscapes/sunset.webp", "webp", 1920, 1080},
		{"webp/medium/landscapes/sunset.webp", "webp", 512, 384},
		{"webp/thumbnail/landscapes/sunset.webp", "webp", 200, 150},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, format := decodeFormat(
				t,
				filepath.Join(f.buildRoot, filepath.FromSlash(tt.file)),
			)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}

	assert.Equal(t, 6, f.metrics.count(metrics.VariantCreated))
}

func TestProcessRequests_LilliputRoundTrip(t *testing.T) {
	f := newLilliputFixture(t, 300, 450)
	req := models.VariantsRequest{
		RequestId: uuid.New(),
		FilePath:  "sunset.png",
		Map:       "landscapes",
	}

	require.NoError(t, f.svc.ProcessGenRequest(context.Background(), req))
	require.Equal(t, sunsetFiles, listFiles(t, f.buildRoot))

	w, h := imageSize(t, filepath.Join(f.buildRoot, "webp", "medium", "landscapes", "sunset.webp"))
	assert.Equal(t, 512, w)
	assert.Equal(t, 768, h)

	require.NoError(t, f.svc.ProcessDelRequest(context.Background(), req))
	assert.Empty(t, listFiles(t, f.buildRoot))
	assert.Equal(t, 6, f.metrics.count(metrics.VariantRemoved))
}
