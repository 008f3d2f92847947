package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func allEqual(img *image.Gray, v uint8) bool {
	for _, p := range img.Pix {
		if p != v {
			return false
		}
	}
	return true
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 11, p.BlockSize)
	assert.InDelta(t, 2.0, p.ThresholdC, 0.001)
	assert.InDelta(t, 30.0, p.DenoiseH, 0.001)
	assert.Equal(t, 7, p.TemplateWindow)
	assert.Equal(t, 21, p.SearchWindow)
	assert.InDelta(t, 100.0, p.CannyLow, 0.001)
	assert.InDelta(t, 200.0, p.CannyHigh, 0.001)
}

func TestParams_WithDefaults(t *testing.T) {
	p := Params{BlockSize: 4, TemplateWindow: 0, SearchWindow: 8, CannyLow: 300, CannyHigh: 150}.withDefaults()
	assert.Equal(t, 11, p.BlockSize)
	assert.Equal(t, 7, p.TemplateWindow)
	assert.Equal(t, 21, p.SearchWindow)
	assert.InDelta(t, 150.0, p.CannyLow, 0.001)
	assert.InDelta(t, 300.0, p.CannyHigh, 0.001)
}

func TestPreprocess_PreservesDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 50, 45))
	for y := 20; y < 45; y++ {
		for x := 10; x < 50; x++ {
			src.Set(x, y, color.White)
		}
	}
	// a dark stroke
	for y := 28; y < 36; y++ {
		for x := 20; x < 23; x++ {
			src.Set(x, y, color.Black)
		}
	}

	out := Preprocess(src)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 40, 25), out.Bounds())
}

func TestPreprocess_BlankPageIsEmpty(t *testing.T) {
	out := Preprocess(uniformGray(32, 24, 255))
	assert.True(t, allEqual(out, 0))
}

func TestPreprocessWith_SkipDenoise(t *testing.T) {
	p := DefaultParams()
	p.DenoiseH = 0
	out := PreprocessWith(uniformGray(16, 16, 255), p)
	assert.Equal(t, image.Rect(0, 0, 16, 16), out.Bounds())
	assert.True(t, allEqual(out, 0))
}

func TestGrayscale(t *testing.T) {
	t.Run("rgba uses luma weights", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 1, 1))
		src.Set(0, 0, color.RGBA{R: 255, A: 255})
		out := Grayscale(src)
		assert.Equal(t, uint8(76), out.GrayAt(0, 0).Y)
	})

	t.Run("sub image is moved to origin", func(t *testing.T) {
		src := uniformGray(10, 10, 0)
		src.SetGray(6, 7, color.Gray{Y: 200})
		sub := src.SubImage(image.Rect(5, 5, 10, 10)).(*image.Gray)

		out := Grayscale(sub)
		assert.Equal(t, image.Rect(0, 0, 5, 5), out.Bounds())
		assert.Equal(t, uint8(200), out.GrayAt(1, 2).Y)
		assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	})
}

func TestGaussianBlur3(t *testing.T) {
	t.Run("uniform image unchanged", func(t *testing.T) {
		out := GaussianBlur3(uniformGray(8, 8, 90))
		assert.True(t, allEqual(out, 90))
	})

	t.Run("impulse spreads with binomial weights", func(t *testing.T) {
		src := uniformGray(5, 5, 0)
		src.SetGray(2, 2, color.Gray{Y: 160})
		out := GaussianBlur3(src)
		assert.Equal(t, uint8(40), out.GrayAt(2, 2).Y)
		assert.Equal(t, uint8(20), out.GrayAt(1, 2).Y)
		assert.Equal(t, uint8(10), out.GrayAt(1, 1).Y)
		assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	})
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 0, reflect101(-4, 1))
	assert.Equal(t, 2, reflect101(2, 5))
}

func TestAdaptiveThreshold(t *testing.T) {
	src := uniformGray(21, 21, 230)
	src.SetGray(10, 10, color.Gray{Y: 20})

	out := AdaptiveThreshold(src, 11, 2)
	assert.Equal(t, uint8(0), out.GrayAt(10, 10).Y, "dark pixel is background after binary threshold")
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(10, 12).Y)
}

func TestInvert(t *testing.T) {
	src := uniformGray(3, 2, 10)
	out := Invert(src)
	assert.True(t, allEqual(out, 245))
}

func TestCanny(t *testing.T) {
	t.Run("uniform has no edges", func(t *testing.T) {
		out := Canny(uniformGray(10, 10, 255), 100, 200)
		assert.True(t, allEqual(out, 0))
	})

	t.Run("vertical step produces a vertical edge", func(t *testing.T) {
		src := uniformGray(12, 12, 0)
		for y := 0; y < 12; y++ {
			for x := 6; x < 12; x++ {
				src.SetGray(x, y, color.Gray{Y: 255})
			}
		}
		out := Canny(src, 100, 200)

		edgeCols := map[int]bool{}
		for y := 0; y < 12; y++ {
			for x := 0; x < 12; x++ {
				if out.GrayAt(x, y).Y == 255 {
					edgeCols[x] = true
				}
			}
		}
		require.NotEmpty(t, edgeCols)
		for x := range edgeCols {
			assert.True(t, x == 5 || x == 6, "unexpected edge column %d", x)
		}
	})
}

func TestSuppressEdges(t *testing.T) {
	src := uniformGray(4, 4, 255)
	edges := uniformGray(4, 4, 0)
	edges.SetGray(1, 1, color.Gray{Y: 255})

	out := SuppressEdges(src, edges)
	assert.Equal(t, uint8(0), out.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(255), src.GrayAt(1, 1).Y, "input is not modified")
}

func TestDenoiseNLM(t *testing.T) {
	t.Run("uniform stays uniform", func(t *testing.T) {
		out := DenoiseNLM(uniformGray(9, 9, 120), 30, 7, 21)
		assert.True(t, allEqual(out, 120))
	})

	t.Run("isolated speckle is suppressed", func(t *testing.T) {
		src := uniformGray(31, 31, 0)
		src.SetGray(15, 15, color.Gray{Y: 255})
		out := DenoiseNLM(src, 30, 7, 21)
		assert.Less(t, out.GrayAt(15, 15).Y, uint8(64))
	})

	t.Run("empty image", func(t *testing.T) {
		out := DenoiseNLM(image.NewGray(image.Rect(0, 0, 0, 0)), 30, 7, 21)
		assert.Equal(t, 0, out.Bounds().Dx())
	})

	t.Run("matches direct patch comparison", func(t *testing.T) {
		for _, tc := range []struct{ w, h, tw, sw int }{
			{13, 11, 3, 5},
			{8, 9, 3, 7},
			{4, 3, 3, 5},
		} {
			src := noiseGray(tc.w, tc.h)
			got := DenoiseNLM(src, 20, tc.tw, tc.sw)
			want := denoiseDirect(src, 20, tc.tw, tc.sw)
			assert.Equal(t, want.Pix, got.Pix, "%dx%d tw=%d sw=%d", tc.w, tc.h, tc.tw, tc.sw)
		}
	})
}

func TestReflectPad(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(src.Pix, []uint8{1, 2, 3, 4, 5, 6})

	buf := reflectPad(src, 2)
	require.Len(t, buf, 7*6)
	assert.Equal(t, []int32{3, 2, 1, 2, 3, 2, 1}, buf[2*7:3*7])
	assert.Equal(t, []int32{6, 5, 4, 5, 6, 5, 4}, buf[3*7:4*7])
	// rows above reflect back through the image
	assert.Equal(t, buf[2*7:3*7], buf[0:7])
	assert.Equal(t, buf[3*7:4*7], buf[1*7:2*7])
}

func noiseGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = uint8(seed >> 24)
	}
	return img
}

// denoiseDirect computes every patch distance pixel by pixel.
func denoiseDirect(src *image.Gray, h float64, tw, sw int) *image.Gray {
	w, ht := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, ht))
	at := func(x, y int) int {
		return int(src.Pix[reflect101(y, ht)*src.Stride+reflect101(x, w)])
	}
	th, sh := tw/2, sw/2
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			var acc, wsum float64
			for dy := -sh; dy <= sh; dy++ {
				for dx := -sh; dx <= sh; dx++ {
					ssd := 0
					for j := -th; j <= th; j++ {
						for i := -th; i <= th; i++ {
							d := at(x+i, y+j) - at(x+dx+i, y+dy+j)
							ssd += d * d
						}
					}
					wt := math.Exp(-float64(ssd/(tw*tw)) / (h * h))
					acc += wt * float64(at(x+dx, y+dy))
					wsum += wt
				}
			}
			out.Pix[y*out.Stride+x] = uint8(math.Round(math.Min(255, math.Max(0, acc/wsum))))
		}
	}
	return out
}

func BenchmarkDenoiseNLM(b *testing.B) {
	src := noiseGray(320, 412)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DenoiseNLM(src, 30, 7, 21)
	}
}
