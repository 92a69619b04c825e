package transcoding

import (
	"context"

	"github.com/giobyte8/imgvariants/internal/variants"
)

//go:generate mockgen -destination=mocks/mock_transcoder.go -package=mocks github.com/giobyte8/imgvariants/internal/transcoding Transcoder

// Quality used for every encoded variant, per output encoding.
const (
	JpegQuality = 85
	WebpQuality = 85
)

// Transcoder produces a single variant file out of a source image.
//
// The source is resized to dims: exactly, when both width and height
// are set, otherwise to dims.Width keeping the source aspect ratio.
// Orientation is applied to the pixels and EXIF metadata is not carried
// over to destPath, which is overwritten if present. The output encoding is picked from destPath's
// extension. Parent directory of destPath must exist.
//
// Failures are reported as *variants.TranscodeError.
type Transcoder interface {
	Transcode(
		ctx context.Context,
		srcPath string,
		destPath string,
		dims variants.Dimensions,
	) error
}
