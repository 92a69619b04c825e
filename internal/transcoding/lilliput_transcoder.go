package transcoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/discord/lilliput"
	"github.com/h2non/filetype"
	"golang.org/x/sync/semaphore"

	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/telemetry/metrics"
	"github.com/giobyte8/imgvariants/internal/variants"
)

const (
	// Sources with a larger width or height are rejected before any
	// framebuffer is allocated
	MaxSourceSide = 10000

	// Default bytes of lilliput buffers allowed to be allocated at
	// once, across all concurrent transcodes
	DefaultMemoryBudget int64 = 1 << 30

	encodeTimeout = time.Minute

	variantFilePerm = 0644
)

type LilliputTranscoder struct {
	telemetry *telemetry.TelemetrySvc

	budget    int64
	memBudget *semaphore.Weighted
}

func NewLilliputTranscoder(
	telemetry *telemetry.TelemetrySvc,
) *LilliputTranscoder {
	return NewLilliputTranscoderWithBudget(telemetry, DefaultMemoryBudget)
}

// NewLilliputTranscoderWithBudget limits the memory held by lilliput
// buffers to budget bytes. Transcodes that would exceed it wait for
// others to finish; a single transcode bigger than the whole budget
// runs alone.
func NewLilliputTranscoderWithBudget(
	telemetry *telemetry.TelemetrySvc,
	budget int64,
) *LilliputTranscoder {
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}

	return &LilliputTranscoder{
		telemetry: telemetry,
		budget:    budget,
		memBudget: semaphore.NewWeighted(budget),
	}
}

func (t *LilliputTranscoder) Transcode(
	ctx context.Context,
	srcPath string,
	destPath string,
	dims variants.Dimensions,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc, err := variants.EncodingForExtension(filepath.Ext(destPath))
	if err != nil {
		return t.fail(srcPath, destPath, err)
	}

	// Load original file into memory
	inputBuf, err := os.ReadFile(srcPath)
	if err != nil {
		return t.fail(srcPath, destPath, err)
	}

	if !filetype.IsImage(inputBuf) {
		return t.fail(srcPath, destPath, variants.ErrUnsupportedSource)
	}

	decoder, err := lilliput.NewDecoder(inputBuf)
	if err != nil {
		return t.fail(
			srcPath,
			destPath,
			fmt.Errorf("failed to create lilliput decoder: %w", err),
		)
	}
	defer decoder.Close()

	origWidth, origHeight, err := t.origDimensions(decoder)
	if err != nil {
		return t.fail(srcPath, destPath, err)
	}

	// Sizes as displayed, once orientation is applied
	tgtWidth, tgtHeight := dims.Fit(origWidth, origHeight)

	// Ops buffers must hold both the decoded original and the result
	opsSize := max(origWidth, origHeight, tgtWidth, tgtHeight)
	outputBufSize := tgtWidth*tgtHeight*4 + 1<<20

	cost := min(transformCost(opsSize, outputBufSize), t.budget)
	if err := t.memBudget.Acquire(ctx, cost); err != nil {
		return err
	}
	defer t.memBudget.Release(cost)

	ops := lilliput.NewImageOps(opsSize)
	defer ops.Close()

	opts := &lilliput.ImageOptions{
		FileType:              "." + enc.Extension(),
		Width:                 tgtWidth,
		Height:                tgtHeight,
		ResizeMethod:          lilliput.ImageOpsResize,
		NormalizeOrientation:  true,
		EncodeOptions:         encodeOptions(enc),
		EncodeTimeout:         encodeTimeout,
		DisableAnimatedOutput: true,
	}

	outputBuf, err := ops.Transform(
		noProfileDecoder{decoder},
		opts,
		make([]byte, outputBufSize),
	)
	if err != nil {
		return t.fail(
			srcPath,
			destPath,
			fmt.Errorf("failed to transform image: %w", err),
		)
	}

	if err := os.WriteFile(destPath, outputBuf, variantFilePerm); err != nil {
		return t.fail(srcPath, destPath, err)
	}

	t.telemetry.Metrics().Increment(
		metrics.VariantCreated,
		map[string]string{
			"encoding":   enc.String(),
			"origSize":   strconv.Itoa(len(inputBuf)),
			"origWidth":  strconv.Itoa(origWidth),
			"destSize":   strconv.Itoa(len(outputBuf)),
			"destWidth":  strconv.Itoa(tgtWidth),
			"destHeight": strconv.Itoa(tgtHeight),
		},
	)

	slog.Debug(
		"Variant written",
		"dest", destPath,
		"width", tgtWidth,
		"height", tgtHeight,
		"bytes", len(outputBuf),
	)
	return nil
}

// Returns the original dimensions as displayed, i.e. with width and
// height swapped when EXIF orientation rotates the image by 90 degrees.
func (t *LilliputTranscoder) origDimensions(
	decoder lilliput.Decoder,
) (int, int, error) {
	imgHeader, err := decoder.Header()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get image header: %w", err)
	}

	origWidth := imgHeader.Width()
	origHeight := imgHeader.Height()
	if origWidth == 0 || origHeight == 0 {
		return 0, 0, fmt.Errorf(
			"invalid original image dimensions: width=%d, height=%d",
			origWidth,
			origHeight,
		)
	}

	if origWidth > MaxSourceSide || origHeight > MaxSourceSide {
		return 0, 0, fmt.Errorf(
			"%w: %dx%d, max side is %d",
			variants.ErrSourceTooLarge,
			origWidth,
			origHeight,
			MaxSourceSide,
		)
	}

	w, h := orientedSize(origWidth, origHeight, imgHeader.Orientation())
	return w, h, nil
}

func (t *LilliputTranscoder) fail(src, dest string, err error) error {
	return &variants.TranscodeError{Src: src, Dest: dest, Err: err}
}

func orientedSize(
	width int,
	height int,
	orientation lilliput.ImageOrientation,
) (int, int) {
	switch orientation {
	case lilliput.OrientationLeftTop,
		lilliput.OrientationRightTop,
		lilliput.OrientationRightBottom,
		lilliput.OrientationLeftBottom:
		return height, width
	default:
		return width, height
	}
}

// Bytes allocated by a transform: two square RGBA framebuffers of
// opsSize side plus the output buffer.
func transformCost(opsSize int, outputBufSize int) int64 {
	side := int64(opsSize)
	return 2*side*side*4 + int64(outputBufSize)
}

// noProfileDecoder hides the source ICC profile so that encoders
// don't embed it in the variant.
type noProfileDecoder struct {
	lilliput.Decoder
}

func (noProfileDecoder) ICC() []byte {
	return nil
}

func encodeOptions(enc variants.Encoding) map[int]int {
	switch enc {
	case variants.WEBP:
		return map[int]int{lilliput.WebpQuality: WebpQuality}
	default:
		return map[int]int{lilliput.JpegQuality: JpegQuality}
	}
}
