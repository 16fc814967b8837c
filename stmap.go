package stwarp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMapNotFound is returned when the ST map cannot be read or decoded.
var ErrMapNotFound = errors.New("could not load ST map")

// STMap is an immutable grid of normalized (s, t) source coordinates, one pair per
// output pixel. It is safe for concurrent use.
type STMap struct {
	W, H int
	S, T []float32
}

// LoadSTMap reads and decodes an ST map file.
func LoadSTMap(path string) (*STMap, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrMapNotFound, path, err)
	}
	m, err := DecodeSTMap(data)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrMapNotFound, path, err)
	}
	return m, nil
}

// DecodeSTMap decodes an ST map from OpenEXR data, or from any registered integer image
// format (PNG, TIFF). S is taken from the red channel and T from the green channel.
func DecodeSTMap(data []byte) (*STMap, error) {
	if len(data) == 0 {
		return nil, errors.New("empty map data")
	}

	var (
		img *floatImage
		err error
	)
	if isEXR(data) {
		img, err = decodeEXR(data)
	} else {
		img, err = decodeIntegerMap(data)
	}
	if err != nil {
		return nil, err
	}

	n := img.W * img.H
	m := &STMap{
		W: img.W,
		H: img.H,
		S: make([]float32, n),
		T: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		m.S[i] = img.Pix[i*3]
		m.T[i] = img.Pix[i*3+1]
	}
	return m, nil
}

// NewSTMap builds a map of w x h from row-major s and t planes.
func NewSTMap(w, h int, s, t []float32) (*STMap, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid map dimensions")
	}
	if len(s) != w*h || len(t) != w*h {
		return nil, fmt.Errorf("map planes must hold %d values", w*h)
	}
	return &STMap{
		W: w,
		H: h,
		S: append([]float32(nil), s...),
		T: append([]float32(nil), t...),
	}, nil
}

// Source returns the source sampling location for output pixel (x, y) in an input
// of inW x inH pixels. T is flipped: t = 1 addresses the top row.
func (m *STMap) Source(x, y, inW, inH int) (float64, float64) {
	i := y*m.W + x
	sx := float64(m.S[i]) * float64(inW-1)
	sy := (1 - float64(m.T[i])) * float64(inH-1)
	return sx, sy
}
