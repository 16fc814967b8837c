package stwarp

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemap_RedSquare(t *testing.T) {
	m, err := NewSTMap(2, 2,
		[]float32{0, 1, 0, 1},
		[]float32{1, 1, 0, 0},
	)
	require.NoError(t, err)
	src := FrameFromImage(solidImage(2, 2, color.NRGBA{R: 255, A: 255}))

	for _, interp := range []Interpolation{
		InterpolationLanczos4, InterpolationLanczos3, InterpolationBicubic,
		InterpolationBilinear, InterpolationNearest,
	} {
		out := Remap(src, m, interp)
		require.Equal(t, 2, out.W)
		require.Equal(t, 2, out.H)
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				r, g, b := out.RGBAt(x, y)
				assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b}, "interp %d at (%d,%d)", interp, x, y)
			}
		}
	}
}

func TestRemap_FlipsT(t *testing.T) {
	src := NewFrame(2, 2)
	// Top row white, bottom row black.
	for x := 0; x < 2; x++ {
		copy(src.Pix[x*3:], []uint8{255, 255, 255})
	}
	m, err := NewSTMap(1, 2, []float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)

	out := Remap(src, m, InterpolationLanczos4)
	r, _, _ := out.RGBAt(0, 0)
	assert.Equal(t, uint8(255), r, "t = 1 samples the top row")
	r, _, _ = out.RGBAt(0, 1)
	assert.Equal(t, uint8(0), r, "t = 0 samples the bottom row")
}

func TestRemap_OutOfBoundsIsBlack(t *testing.T) {
	src := FrameFromImage(solidImage(4, 4, color.NRGBA{R: 200, G: 150, B: 100, A: 255}))
	nan := float32(math.NaN())
	m, err := NewSTMap(6, 1,
		[]float32{-0.01, 1.01, 0.5, 0.5, nan, 0.5},
		[]float32{0.5, 0.5, -0.5, 1.5, 0.5, 0.5},
	)
	require.NoError(t, err)

	out := Remap(src, m, InterpolationLanczos4)
	for x := 0; x < 5; x++ {
		r, g, b := out.RGBAt(x, 0)
		assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b}, "pixel %d", x)
	}
	r, g, b := out.RGBAt(5, 0)
	assert.NotEqual(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestRemap_OutputSizeFollowsMap(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {3, 5}, {17, 9}, {64, 48}} {
		src := FrameFromImage(gradientImage(size[0], size[1]))
		m := identityMap(t, 13, 7)
		out := Remap(src, m, InterpolationLanczos4)
		assert.Equal(t, 13, out.W)
		assert.Equal(t, 7, out.H)
		assert.Len(t, out.Pix, 13*7*3)
	}
}

func TestRemap_IdentityReproducesSource(t *testing.T) {
	src := FrameFromImage(gradientImage(31, 23))
	out := Remap(src, identityMap(t, 31, 23), InterpolationLanczos4)
	for y := 0; y < 23; y++ {
		for x := 0; x < 31; x++ {
			r1, g1, b1 := src.RGBAt(x, y)
			r2, g2, b2 := out.RGBAt(x, y)
			assert.LessOrEqual(t, absDiff(r1, r2), 1)
			assert.LessOrEqual(t, absDiff(g1, g2), 1)
			assert.LessOrEqual(t, absDiff(b1, b2), 1)
		}
	}
}

func TestRemap_HalfPixelBilinear(t *testing.T) {
	src := NewFrame(2, 1)
	copy(src.Pix, []uint8{0, 0, 0, 200, 100, 50})
	m, err := NewSTMap(1, 1, []float32{0.5}, []float32{1})
	require.NoError(t, err)

	out := Remap(src, m, InterpolationBilinear)
	r, g, b := out.RGBAt(0, 0)
	assert.Equal(t, [3]uint8{100, 50, 25}, [3]uint8{r, g, b})
}

func TestKernelWeightsNormalized(t *testing.T) {
	for _, interp := range []Interpolation{
		InterpolationLanczos4, InterpolationLanczos3, InterpolationBicubic,
		InterpolationBilinear, InterpolationNearest,
	} {
		def := kernelForInterpolation(interp)
		w := make([]float32, def.taps)
		for _, frac := range []float64{0, 0.1, 0.5, 0.9} {
			fillWeights(w, float64(def.taps/2-1)+frac, def)
			var sum float32
			for _, v := range w {
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-5, "interp %d frac %v", interp, frac)
		}
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	seen := make([]int, 1000)
	parallelFor(len(seen), func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, v := range seen {
		require.Equal(t, 1, v, "index %d", i)
	}
}
