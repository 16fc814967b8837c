package stwarp

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
	"github.com/vearutop/stwarp/internal/jpegx"
)

// encodeWithQuality encodes a baseline JPEG without any APP or COM segments.
func encodeWithQuality(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return jpegx.StripMetadata(buf.Bytes())
}

// storageImage converts the remapped frame into the image handed to the encoder,
// resizing it when a target size is configured.
func storageImage(f *Frame, width, height uint) image.Image {
	img := f.RGBA()
	if width == 0 && height == 0 {
		return img
	}
	if width == uint(f.W) && height == uint(f.H) {
		return img
	}
	return resize.Resize(width, height, img, resize.Lanczos3)
}
