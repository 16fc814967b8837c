package stwarp

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 0xFF})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// identityMap maps every output pixel of a w x h grid onto the same pixel of a
// w x h input.
func identityMap(t *testing.T, w, h int) *STMap {
	t.Helper()
	s := make([]float32, w*h)
	tt := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if w > 1 {
				s[y*w+x] = float32(x) / float32(w-1)
			}
			if h > 1 {
				tt[y*w+x] = 1 - float32(y)/float32(h-1)
			}
		}
	}
	m, err := NewSTMap(w, h, s, tt)
	require.NoError(t, err)
	return m
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func assertColorNear(t *testing.T, img image.Image, x, y int, want color.NRGBA, tol int) {
	t.Helper()
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	if absDiff(c.R, want.R) > tol || absDiff(c.G, want.G) > tol || absDiff(c.B, want.B) > tol {
		t.Fatalf("pixel (%d,%d) = %v, want %v within %d", x, y, c, want, tol)
	}
}
