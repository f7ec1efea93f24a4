package similarity

import "image"

const (
	windowSize = 7
	k1         = 0.01
	k2         = 0.03
	dataRange  = 255.0
)

// planes holds one float64 plane per RGB channel, row-major.
type planes struct {
	w, h int
	c    [3][]float64
}

func rgbPlanes(img *image.NRGBA) planes {
	b := img.Bounds()
	p := planes{w: b.Dx(), h: b.Dy()}
	for ch := range p.c {
		p.c[ch] = make([]float64, p.w*p.h)
	}
	for y := 0; y < p.h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+p.w*4]
		for x := 0; x < p.w; x++ {
			i := y*p.w + x
			p.c[0][i] = float64(row[x*4])
			p.c[1][i] = float64(row[x*4+1])
			p.c[2][i] = float64(row[x*4+2])
		}
	}
	return p
}

// mssim returns the mean SSIM over every channel of two equally sized planes.
// Only windows lying fully inside the image contribute.
func mssim(a, b planes) (float64, bool) {
	if a.w != b.w || a.h != b.h || a.w < windowSize || a.h < windowSize {
		return 0, false
	}

	var total float64
	for ch := 0; ch < 3; ch++ {
		total += channelSSIM(a.c[ch], b.c[ch], a.w, a.h)
	}
	return total / 3, true
}

func channelSSIM(x, y []float64, w, h int) float64 {
	sx := newIntegral(w, h, func(i int) float64 { return x[i] })
	sy := newIntegral(w, h, func(i int) float64 { return y[i] })
	sxx := newIntegral(w, h, func(i int) float64 { return x[i] * x[i] })
	syy := newIntegral(w, h, func(i int) float64 { return y[i] * y[i] })
	sxy := newIntegral(w, h, func(i int) float64 { return x[i] * y[i] })

	const np = windowSize * windowSize
	covNorm := float64(np) / float64(np-1)
	c1 := (k1 * dataRange) * (k1 * dataRange)
	c2 := (k2 * dataRange) * (k2 * dataRange)

	var sum float64
	var count int
	for y0 := 0; y0+windowSize <= h; y0++ {
		for x0 := 0; x0+windowSize <= w; x0++ {
			ux := sx.box(x0, y0, windowSize) / np
			uy := sy.box(x0, y0, windowSize) / np
			uxx := sxx.box(x0, y0, windowSize) / np
			uyy := syy.box(x0, y0, windowSize) / np
			uxy := sxy.box(x0, y0, windowSize) / np

			vx := covNorm * (uxx - ux*ux)
			vy := covNorm * (uyy - uy*uy)
			vxy := covNorm * (uxy - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			sum += num / den
			count++
		}
	}
	return sum / float64(count)
}

// integral is a summed-area table with a zero row and column prepended.
type integral struct {
	stride int
	v      []float64
}

func newIntegral(w, h int, at func(i int) float64) integral {
	t := integral{stride: w + 1, v: make([]float64, (w+1)*(h+1))}
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += at(y*w + x)
			t.v[(y+1)*t.stride+x+1] = t.v[y*t.stride+x+1] + row
		}
	}
	return t
}

func (t integral) box(x0, y0, n int) float64 {
	x1, y1 := x0+n, y0+n
	return t.v[y1*t.stride+x1] - t.v[y0*t.stride+x1] - t.v[y1*t.stride+x0] + t.v[y0*t.stride+x0]
}
