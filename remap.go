package stwarp

import (
	"math"
	"runtime"
	"sync"
)

// Interpolation selects the kernel used to sample the source frame.
type Interpolation int

const (
	// InterpolationLanczos4 is Lanczos sampling with a=4 over an 8x8 neighbourhood.
	InterpolationLanczos4 Interpolation = iota
	// InterpolationLanczos3 is Lanczos sampling with a=3.
	InterpolationLanczos3
	// InterpolationBicubic is cubic sampling.
	InterpolationBicubic
	// InterpolationBilinear is linear sampling.
	InterpolationBilinear
	// InterpolationNearest is nearest-neighbor sampling.
	InterpolationNearest
)

type kernelDef struct {
	taps   int
	kernel func(float64) float64
}

var (
	workerSemOnce sync.Once
	workerSem     chan struct{}
)

func kernelForInterpolation(interp Interpolation) kernelDef {
	switch interp {
	case InterpolationNearest:
		return kernelDef{taps: 2, kernel: nearestKernel}
	case InterpolationBilinear:
		return kernelDef{taps: 2, kernel: linearKernel}
	case InterpolationBicubic:
		return kernelDef{taps: 4, kernel: cubicKernel}
	case InterpolationLanczos3:
		return kernelDef{taps: 6, kernel: lanczos3Kernel}
	default:
		return kernelDef{taps: 8, kernel: lanczos4Kernel}
	}
}

// Remap resamples src through m. The result has the map's dimensions. Output pixels
// whose source location falls outside src are black, and kernel taps outside src
// contribute black.
func Remap(src *Frame, m *STMap, interp Interpolation) *Frame {
	dst := NewFrame(m.W, m.H)
	if src.W <= 0 || src.H <= 0 {
		return dst
	}
	def := kernelForInterpolation(interp)
	maxX := float64(src.W - 1)
	maxY := float64(src.H - 1)

	parallelFor(m.H, func(start, end int) {
		wx := make([]float32, def.taps)
		wy := make([]float32, def.taps)
		for y := start; y < end; y++ {
			row := dst.Pix[y*dst.Stride():]
			for x := 0; x < m.W; x++ {
				sx, sy := m.Source(x, y, src.W, src.H)
				// Negated form also rejects NaN.
				if !(sx >= 0 && sx <= maxX && sy >= 0 && sy <= maxY) {
					continue
				}
				r, g, b := sample(src, sx, sy, def, wx, wy)
				row[x*3+0] = r
				row[x*3+1] = g
				row[x*3+2] = b
			}
		}
	})
	return dst
}

func sample(src *Frame, sx, sy float64, def kernelDef, wx, wy []float32) (uint8, uint8, uint8) {
	x0 := int(math.Floor(sx)) - def.taps/2 + 1
	y0 := int(math.Floor(sy)) - def.taps/2 + 1
	fillWeights(wx, sx-float64(x0), def)
	fillWeights(wy, sy-float64(y0), def)

	stride := src.Stride()
	var r, g, b float32
	for j := 0; j < def.taps; j++ {
		yi := y0 + j
		if yi < 0 || yi >= src.H || wy[j] == 0 {
			continue
		}
		row := src.Pix[yi*stride:]
		var rr, gg, bb float32
		for i := 0; i < def.taps; i++ {
			xi := x0 + i
			if xi < 0 || xi >= src.W {
				continue
			}
			w := wx[i]
			off := xi * 3
			rr += float32(row[off+0]) * w
			gg += float32(row[off+1]) * w
			bb += float32(row[off+2]) * w
		}
		r += rr * wy[j]
		g += gg * wy[j]
		b += bb * wy[j]
	}
	return clampToByte(r), clampToByte(g), clampToByte(b)
}

// fillWeights computes normalized kernel weights for taps at distances d, d-1, ...
func fillWeights(weights []float32, d float64, def kernelDef) {
	var sum float64
	for i := range weights {
		w := def.kernel(d - float64(i))
		weights[i] = float32(w)
		sum += w
	}
	if sum != 0 {
		inv := float32(1.0 / sum)
		for i := range weights {
			weights[i] *= inv
		}
	}
}

// parallelFor splits [0, total) into contiguous bands processed concurrently.
// The number of bands running at once across the process is bounded by GOMAXPROCS.
func parallelFor(total int, fn func(start, end int)) {
	if total <= 0 {
		return
	}
	capacity := runtime.GOMAXPROCS(0)
	if capacity < 1 {
		capacity = 1
	}
	workerSemOnce.Do(func() {
		workerSem = make(chan struct{}, capacity)
	})
	workers := cap(workerSem)
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(0, total)
		return
	}
	step := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * step
		end := start + step
		if end > total {
			end = total
		}
		if start >= end {
			break
		}
		workerSem <- struct{}{}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() { <-workerSem }()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

func nearestKernel(in float64) float64 {
	if in >= -0.5 && in < 0.5 {
		return 1
	}
	return 0
}

func linearKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return 1 - in
	}
	return 0
}

func cubicKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return in*in*(1.5*in-2.5) + 1.0
	}
	if in <= 2 {
		return in*(in*(2.5-0.5*in)-4.0) + 2.0
	}
	return 0
}

func sinc(x float64) float64 {
	x = math.Abs(x) * math.Pi
	if x >= 1.220703e-4 {
		return math.Sin(x) / x
	}
	return 1
}

func lanczos3Kernel(in float64) float64 {
	if in > -3 && in < 3 {
		return sinc(in) * sinc(in/3)
	}
	return 0
}

func lanczos4Kernel(in float64) float64 {
	if in > -4 && in < 4 {
		return sinc(in) * sinc(in/4)
	}
	return 0
}

func clampToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
