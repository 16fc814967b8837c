package stwarp

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConvertFolder loads the ST map at stPath, creates outDir (with parents) and
// converts every allowed image found directly in inDir.
func ConvertFolder(stPath, inDir, outDir string, opts ...func(o *Options)) (*Summary, error) {
	m, err := LoadSTMap(stPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Clean(outDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	files, err := ListImages(inDir)
	if err != nil {
		return nil, err
	}

	return ConvertAll(files, m, outDir, opts...)
}
