package stwarp

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIdentityEXR(t *testing.T, path string, w, h int) {
	t.Helper()
	m := identityMap(t, w, h)
	require.NoError(t, os.WriteFile(path, buildEXR(t, w, h, exrCompressionZip, []testEXRChannel{
		{name: "B", pixelType: exrPixelFloat, values: make([]float32, w*h)},
		{name: "G", pixelType: exrPixelFloat, values: m.T},
		{name: "R", pixelType: exrPixelFloat, values: m.S},
	}), 0o600))
}

func TestConvertFolder(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out", "nested")
	stPath := filepath.Join(root, "map.exr")
	require.NoError(t, os.Mkdir(in, 0o755))
	writeIdentityEXR(t, stPath, 24, 16)

	writePNG(t, filepath.Join(in, "one.png"), solidImage(24, 16, color.NRGBA{G: 255, A: 255}))
	writePNG(t, filepath.Join(in, "two.PNG"), gradientImage(48, 32))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.jpg"), []byte("nope"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(in, "readme.txt"), []byte("ignored"), 0o600))

	var submitted []string
	summary, err := ConvertFolder(stPath, in, out, func(o *Options) {
		o.OnSubmit = func(path string) { submitted = append(submitted, filepath.Base(path)) }
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Converted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.ElementsMatch(t, []string{"one.png", "two.PNG", "broken.jpg"}, submitted)

	img := decodeJPEGFile(t, filepath.Join(out, "one.jpg"))
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	assertColorNear(t, img, 12, 8, color.NRGBA{G: 255}, 10)

	_, err = os.Stat(filepath.Join(out, "two.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "broken.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertFolder_MissingMap(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")

	_, err := ConvertFolder(filepath.Join(root, "missing.exr"), root, out)
	require.ErrorIs(t, err, ErrMapNotFound)

	_, err = os.Stat(out)
	assert.ErrorIs(t, err, os.ErrNotExist, "output folder is not created without a map")
}

func TestConvertFolder_MissingInput(t *testing.T) {
	root := t.TempDir()
	stPath := filepath.Join(root, "map.exr")
	writeIdentityEXR(t, stPath, 4, 4)

	_, err := ConvertFolder(stPath, filepath.Join(root, "missing"), filepath.Join(root, "out"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
