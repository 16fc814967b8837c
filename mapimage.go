package stwarp

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/png" // Register PNG decoder for integer maps.

	_ "golang.org/x/image/tiff" // Register TIFF decoder for integer maps.
)

// decodeIntegerMap decodes an 8/16-bit integer map into a float image normalized to [0, 1].
func decodeIntegerMap(data []byte) (*floatImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid map dimensions")
	}
	out := &floatImage{
		W:   w,
		H:   h,
		Pix: make([]float32, w*h*3),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Non-premultiplied, so a transparent map pixel keeps its coordinates.
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			i := (y*w + x) * 3
			out.Pix[i] = float32(c.R) / 65535.0
			out.Pix[i+1] = float32(c.G) / 65535.0
			out.Pix[i+2] = float32(c.B) / 65535.0
		}
	}
	return out, nil
}
