package stwarp

import (
	"image"

	"github.com/disintegration/imaging"
)

// Colour handling is split in two stages and nothing else converts pixels:
//
//  1. decoded image -> Frame (processing representation): any decoded model is
//     normalized to non-premultiplied 8-bit NRGBA, then alpha is dropped without
//     compositing, leaving interleaved R, G, B.
//  2. Frame -> *image.RGBA (storage representation): opaque, same channel order,
//     handed to the JPEG encoder which performs the RGB -> YCbCr conversion.
//
// The remap works on the processing representation only, so no gamma, gamut or
// channel-order change happens between decode and encode.

// Frame is an 8-bit, 3-channel RGB pixel buffer.
type Frame struct {
	W, H int
	Pix  []uint8
}

// NewFrame allocates a black frame.
func NewFrame(w, h int) *Frame {
	return &Frame{W: w, H: h, Pix: make([]uint8, w*h*3)}
}

// Stride is the number of bytes per row.
func (f *Frame) Stride() int {
	return f.W * 3
}

// RGBAt returns the pixel at (x, y).
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := y*f.Stride() + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// FrameFromImage converts a decoded image into the processing representation.
func FrameFromImage(img image.Image) *Frame {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	f := NewFrame(w, h)
	for y := 0; y < h; y++ {
		in := src.Pix[y*src.Stride:]
		out := f.Pix[y*f.Stride():]
		for x := 0; x < w; x++ {
			out[x*3+0] = in[x*4+0]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+2]
		}
	}
	return f
}

// RGBA converts the frame into the opaque storage representation used for encoding.
func (f *Frame) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		in := f.Pix[y*f.Stride():]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < f.W; x++ {
			out[x*4+0] = in[x*3+0]
			out[x*4+1] = in[x*3+1]
			out[x*4+2] = in[x*3+2]
			out[x*4+3] = 0xFF
		}
	}
	return dst
}
