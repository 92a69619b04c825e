package variants

import (
	"fmt"
	"slices"
)

// Encoding is the output file format of a generated variant.
type Encoding int

const (
	JPG Encoding = iota
	WEBP
)

// Variant is one of the target output sizes.
type Variant int

const (
	Full Variant = iota
	Medium
	Thumbnail
)

// Dimensions holds the target size of a variant. A zero Height means
// the height is derived from the source aspect ratio.
type Dimensions struct {
	Width  int
	Height int
}

var encodings = [...]Encoding{JPG, WEBP}
var variantsList = [...]Variant{Full, Medium, Thumbnail}

var extensions = [...]string{
	JPG:  "jpg",
	WEBP: "webp",
}

var variantNames = [...]string{
	Full:      "full",
	Medium:    "medium",
	Thumbnail: "thumbnail",
}

var dimensions = [...]Dimensions{
	Full:      {Width: 1920, Height: 1080},
	Medium:    {Width: 512},
	Thumbnail: {Width: 200},
}

var directories = [...][3]string{
	JPG: {
		Full:      "full",
		Medium:    "medium",
		Thumbnail: "thumbnail",
	},
	WEBP: {
		Full:      "webp/full",
		Medium:    "webp/medium",
		Thumbnail: "webp/thumbnail",
	},
}

// Combination is a single (encoding, variant) pair.
type Combination struct {
	Encoding Encoding
	Variant  Variant
}

func (e Encoding) Extension() string {
	return extensions[e]
}

func (e Encoding) String() string {
	if e < 0 || int(e) >= len(extensions) {
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
	return extensions[e]
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Encodings returns every supported output encoding.
func Encodings() []Encoding {
	return slices.Clone(encodings[:])
}

// Variants returns every variant size, largest first.
func Variants() []Variant {
	return slices.Clone(variantsList[:])
}

// Combinations returns the six (encoding, variant) pairs generated for
// each source image, grouped by encoding.
func Combinations() []Combination {
	combos := make([]Combination, 0, len(encodings)*len(variantsList))
	for _, enc := range Encodings() {
		for _, v := range Variants() {
			combos = append(combos, Combination{Encoding: enc, Variant: v})
		}
	}

	return combos
}

func DimensionsOf(v Variant) Dimensions {
	return dimensions[v]
}

// DirectoryOf returns the output directory of a variant, relative to
// the build root and using forward slashes.
func DirectoryOf(enc Encoding, v Variant) string {
	return directories[enc][v]
}

// EncodingForExtension maps a file extension, with or without the
// leading dot, to its Encoding.
func EncodingForExtension(ext string) (Encoding, error) {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}

	for _, enc := range encodings {
		if extensions[enc] == ext {
			return enc, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, ext)
}
