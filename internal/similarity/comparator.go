// Package similarity scores how alike two images look.
//
// Both images are flattened to RGB, resampled with a Lanczos filter to the
// smaller of their widths and heights, and compared with the structural
// similarity index (SSIM). A pair that cannot be compared scores 0.
package similarity

import (
	"image"

	"github.com/disintegration/imaging"
)

// Comparator scores two decoded images. Scores are nominally in [-1, 1] with
// 1 meaning pixel-identical after normalization.
type Comparator interface {
	Similarity(a, b image.Image) float64
}

// SSIM is the default Comparator.
type SSIM struct{}

func (SSIM) Similarity(a, b image.Image) float64 {
	return Similarity(a, b)
}

// Similarity returns the mean SSIM of a and b after normalization, or 0 when
// either image is too small for the comparison window.
func Similarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	ab, bb := a.Bounds(), b.Bounds()
	w := min(ab.Dx(), bb.Dx())
	h := min(ab.Dy(), bb.Dy())
	if w < windowSize || h < windowSize {
		return 0
	}

	pa := rgbPlanes(resampleRGB(a, w, h))
	pb := rgbPlanes(resampleRGB(b, w, h))
	score, ok := mssim(pa, pb)
	if !ok {
		return 0
	}
	return score
}

// resampleRGB drops alpha and resizes img to exactly w x h.
func resampleRGB(img image.Image, w, h int) *image.NRGBA {
	rgb := opaque(img)
	if rgb.Bounds().Dx() == w && rgb.Bounds().Dy() == h {
		return rgb
	}
	return imaging.Resize(rgb, w, h, imaging.Lanczos)
}

// opaque copies img into an NRGBA buffer anchored at the origin and forces
// every alpha sample to 255, keeping the straight (unpremultiplied) colour.
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
