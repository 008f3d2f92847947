package imaging

import (
	"image"
	"image/draw"
	"math"
)

// Grayscale converts img to a single-channel image using the ITU-R 601 luma
// weights. The result's bounds start at the origin.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			src := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src[:b.Dx()])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// reflect101 mirrors an out-of-range index without repeating the edge pixel
// (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// clampIndex repeats the edge pixel for out-of-range indexes.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// GaussianBlur3 applies the 3x3 binomial kernel (sigma 0.8) with mirrored
// borders.
func GaussianBlur3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	tmp := make([]int, w*h)

	// horizontal pass, scaled by 4
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			l := int(row[reflect101(x-1, w)])
			c := int(row[x])
			r := int(row[reflect101(x+1, w)])
			tmp[y*w+x] = l + 2*c + r
		}
	}
	// vertical pass, total scale 16
	for y := 0; y < h; y++ {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		for x := 0; x < w; x++ {
			v := tmp[up+x] + 2*tmp[y*w+x] + tmp[down+x]
			out.Pix[y*out.Stride+x] = uint8((v + 8) >> 4)
		}
	}
	return out
}

// gaussianKernel returns a normalized 1-D kernel. A non-positive sigma is
// derived from the size the same way OpenCV does.
func gaussianKernel(size int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted local mean
// over a blockSize x blockSize neighbourhood minus c. Pixels brighter than
// the threshold become 255, the rest 0. Borders repeat the edge pixel.
func AdaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	k := gaussianKernel(blockSize, 0)
	half := blockSize / 2
	tmp := make([]float64, w*h)

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var s float64
			for i, kv := range k {
				s += kv * float64(row[clampIndex(x+i-half, w)])
			}
			tmp[y*w+x] = s
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for i, kv := range k {
				s += kv * tmp[clampIndex(y+i-half, h)*w+x]
			}
			mean := math.Round(s)
			if float64(src.Pix[y*src.Stride+x]) > mean-c {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// Invert flips polarity so dark text on a light page becomes foreground.
func Invert(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w]
		d := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range s {
			d[x] = 255 - v
		}
	}
	return out
}

// SuppressEdges returns a copy of src with every pixel set in edges zeroed.
func SuppressEdges(src, edges *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.Pix[y*src.Stride+x]
			if edges.Pix[y*edges.Stride+x] == 255 {
				v = 0
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
