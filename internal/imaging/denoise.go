package imaging

import (
	"image"
	"math"
)

// DenoiseNLM applies non-local-means denoising to src. Each output pixel is
// the average of the pixels in its searchWindow neighbourhood, weighted by
// how closely the templateWindow patch around them matches the patch around
// the pixel itself: w = exp(-meanSquaredPatchDistance / h²).
//
// Patch distances are computed per search offset with an integral image, so
// the cost is O(pixels × searchWindow²) independent of templateWindow.
func DenoiseNLM(src *image.Gray, h float64, templateWindow, searchWindow int) *image.Gray {
	w, ht := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, ht))
	if w == 0 || ht == 0 {
		return out
	}

	th := templateWindow / 2
	sh := searchWindow / 2
	tArea := templateWindow * templateWindow

	// weights indexed by mean squared patch distance (0..255²)
	weights := make([]float64, 255*255+1)
	h2 := h * h
	for d := range weights {
		weights[d] = math.Exp(-float64(d) / h2)
	}

	// src reflected out to every coordinate a patch or search offset reaches
	pad := th + sh
	bw := w + 2*pad
	buf := reflectPad(src, pad)

	// padded domain covers every patch centre in the image
	pw, ph := w+2*th, ht+2*th
	integral := make([]int64, (pw+1)*(ph+1))
	acc := make([]float64, w*ht)
	wsum := make([]float64, w*ht)
	area := int64(tArea)

	for dy := -sh; dy <= sh; dy++ {
		for dx := -sh; dx <= sh; dx++ {
			// integral of squared differences between p and p+(dx,dy);
			// padded (px,py) is buf (px+sh, py+sh)
			for py := 0; py < ph; py++ {
				a := buf[(py+sh)*bw+sh:][:pw]
				b := buf[(py+sh+dy)*bw+sh+dx:][:pw]
				row := integral[(py+1)*(pw+1)+1:][:pw]
				prev := integral[py*(pw+1)+1:][:pw]
				var rowSum int64
				for px := range a {
					d := int64(a[px] - b[px])
					rowSum += d * d
					row[px] = prev[px] + rowSum
				}
			}

			for y := 0; y < ht; y++ {
				// patch centred on (x,y) spans padded [x, x+2th] × [y, y+2th]
				top := integral[y*(pw+1):]
				bot := integral[(y+templateWindow)*(pw+1):]
				nb := buf[(y+dy+pad)*bw+dx+pad:][:w]
				ai := acc[y*w:][:w]
				ws := wsum[y*w:][:w]
				for x := range nb {
					x1 := x + templateWindow
					ssd := bot[x1] - top[x1] - bot[x] + top[x]
					wt := weights[ssd/area]
					ai[x] += wt * float64(nb[x])
					ws[x] += wt
				}
			}
		}
	}

	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := float64(src.Pix[y*src.Stride+x])
			if wsum[i] > 0 {
				v = acc[i] / wsum[i]
			}
			out.Pix[y*out.Stride+x] = uint8(math.Round(math.Min(255, math.Max(0, v))))
		}
	}
	return out
}

// reflectPad copies src into a row-major buffer with pad pixels of
// reflect-101 border on every side.
func reflectPad(src *image.Gray, pad int) []int32 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	bw, bh := w+2*pad, h+2*pad
	buf := make([]int32, bw*bh)

	cols := make([]int, bw)
	for bx := range cols {
		cols[bx] = reflect101(bx-pad, w)
	}
	for by := 0; by < bh; by++ {
		srcRow := src.Pix[reflect101(by-pad, h)*src.Stride:]
		dst := buf[by*bw:][:bw]
		for bx, sx := range cols {
			dst[bx] = int32(srcRow[sx])
		}
	}
	return buf
}
