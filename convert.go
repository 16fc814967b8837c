package stwarp

import (
	"fmt"
	_ "image/gif"  // Register GIF decoder, formats are sniffed from content.
	_ "image/jpeg" // Register JPEG decoder.
	_ "image/png"  // Register PNG decoder.
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // Register BMP decoder.
)

// ConvertFile de-warps a single image through m and writes the JPEG into outDir.
//
// Inputs that cannot be decoded are reported with StatusSkipped and produce no
// output. Failures after decoding are reported with StatusFailed.
func ConvertFile(inPath string, m *STMap, outDir string, opts ...func(o *Options)) Result {
	opt := applyOptions(opts)
	return convertFile(inPath, m, outDir, &opt)
}

// OutputPath returns the JPEG path written for inPath.
func OutputPath(outDir, inPath string) string {
	base := filepath.Base(inPath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+outputExt)
}

func convertFile(inPath string, m *STMap, outDir string, opt *Options) (res Result) {
	res.Input = inPath

	// No auto-orientation: pixels are used as stored, and the EXIF tag is not carried over.
	img, err := imaging.Open(inPath)
	if err != nil {
		res.Status = StatusSkipped
		res.Err = fmt.Errorf("decode: %w", err)
		return res
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		res.Status = StatusSkipped
		res.Err = fmt.Errorf("decode: empty image %dx%d", b.Dx(), b.Dy())
		return res
	}

	remapped := Remap(FrameFromImage(img), m, opt.Interpolation)

	data, err := encodeWithQuality(storageImage(remapped, opt.Width, opt.Height), opt.Quality)
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("encode: %w", err)
		return res
	}

	outPath := OutputPath(outDir, inPath)
	if err := os.WriteFile(filepath.Clean(outPath), data, 0o644); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("write output: %w", err)
		return res
	}

	res.Status = StatusConverted
	res.Output = outPath
	return res
}
