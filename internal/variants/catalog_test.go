package variants_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giobyte8/imgvariants/internal/variants"
)

func TestDimensionsOf(t *testing.T) {
	assert.Equal(t, variants.Dimensions{Width: 1920, Height: 1080}, variants.DimensionsOf(variants.Full))
	assert.Equal(t, variants.Dimensions{Width: 512}, variants.DimensionsOf(variants.Medium))
	assert.Equal(t, variants.Dimensions{Width: 200}, variants.DimensionsOf(variants.Thumbnail))

	assert.True(t, variants.DimensionsOf(variants.Full).Forced())
	assert.False(t, variants.DimensionsOf(variants.Medium).Forced())
	assert.False(t, variants.DimensionsOf(variants.Thumbnail).Forced())
}

func TestDirectoryOf(t *testing.T) {
	tests := []struct {
		enc  variants.Encoding
		v    variants.Variant
		want string
	}{
		{variants.JPG, variants.Full, "full"},
		{variants.JPG, variants.Medium, "medium"},
		{variants.JPG, variants.Thumbnail, "thumbnail"},
		{variants.WEBP, variants.Full, "webp/full"},
		{variants.WEBP, variants.Medium, "webp/medium"},
		{variants.WEBP, variants.Thumbnail, "webp/thumbnail"},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String()+"/"+tt.v.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, variants.DirectoryOf(tt.enc, tt.v))
		})
	}
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, []variants.Encoding{variants.JPG, variants.WEBP}, variants.Encodings())
	assert.Equal(t, []variants.Variant{variants.Full, variants.Medium, variants.Thumbnail}, variants.Variants())

	combos := variants.Combinations()
	require.Len(t, combos, 6)

	seen := map[variants.Combination]bool{}
	for _, c := range combos {
		assert.False(t, seen[c], "duplicate combination %v", c)
		seen[c] = true
	}

	assert.Equal(t, variants.Combination{Encoding: variants.JPG, Variant: variants.Full}, combos[0])
	assert.Equal(t, variants.Combination{Encoding: variants.WEBP, Variant: variants.Thumbnail}, combos[5])
}

func TestEncodingForExtension(t *testing.T) {
	enc, err := variants.EncodingForExtension(".jpg")
	require.NoError(t, err)
	assert.Equal(t, variants.JPG, enc)

	enc, err = variants.EncodingForExtension("webp")
	require.NoError(t, err)
	assert.Equal(t, variants.WEBP, enc)

	_, err = variants.EncodingForExtension(".png")
	assert.ErrorIs(t, err, variants.ErrUnsupportedEncoding)
}

func TestResolve(t *testing.T) {
	root := filepath.Join("/srv", "build")
	src := variants.SourceImage{
		Filepath: "in.png",
		Map:      "landscapes",
		Name:     "sunset",
	}

	tests := []struct {
		enc  variants.Encoding
		v    variants.Variant
		want string
	}{
		{variants.JPG, variants.Full, "full/landscapes/sunset.jpg"},
		{variants.JPG, variants.Medium, "medium/landscapes/sunset.jpg"},
		{variants.JPG, variants.Thumbnail, "thumbnail/landscapes/sunset.jpg"},
		{variants.WEBP, variants.Full, "webp/full/landscapes/sunset.webp"},
		{variants.WEBP, variants.Medium, "webp/medium/landscapes/sunset.webp"},
		{variants.WEBP, variants.Thumbnail, "webp/thumbnail/landscapes/sunset.webp"},
	}

	for _, tt := range tests {
		got := variants.Resolve(root, src, tt.enc, tt.v)
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
	}
}

func TestResolve_DistinctSourcesNeverCollide(t *testing.T) {
	sources := []variants.SourceImage{
		{Filepath: "a.png", Map: "landscapes", Name: "sunset"},
		{Filepath: "b.png", Map: "landscapes", Name: "sunrise"},
		{Filepath: "c.png", Map: "portraits", Name: "sunset"},
		{Filepath: "d.png", Map: "", Name: "sunset"},
	}

	seen := map[string]variants.SourceImage{}
	for _, src := range sources {
		for _, c := range variants.Combinations() {
			p := variants.Resolve("/build", src, c.Encoding, c.Variant)
			prev, dup := seen[p]
			require.False(t, dup, "%s resolved for both %v and %v", p, prev, src)
			seen[p] = src
		}
	}
	assert.Len(t, seen, len(sources)*6)
}
