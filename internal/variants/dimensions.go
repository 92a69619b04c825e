package variants

import "math"

// Forced reports whether both width and height are set, in which case
// the source is resized to exactly those dimensions regardless of its
// aspect ratio.
func (d Dimensions) Forced() bool {
	return d.Width > 0 && d.Height > 0
}

// Fit computes the output size for a source of srcW x srcH pixels.
func (d Dimensions) Fit(srcW, srcH int) (int, int) {
	if d.Forced() || srcW <= 0 || srcH <= 0 {
		return d.Width, d.Height
	}

	h := int(math.Round(float64(srcH) * float64(d.Width) / float64(srcW)))
	if h < 1 {
		h = 1
	}

	return d.Width, h
}
