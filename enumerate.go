package stwarp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// ListImages returns the paths of regular files in dir with an allowed image extension.
// Sub-directories and other files are skipped.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, fmt.Errorf("list input folder: %w", err)
	}

	paths := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if !isAllowedImage(e.Name()) {
			return "", false
		}
		p := filepath.Join(dir, e.Name())
		if e.Type().IsRegular() {
			return p, true
		}
		if e.Type()&os.ModeSymlink == 0 {
			return "", false
		}
		fi, err := os.Stat(p)
		return p, err == nil && fi.Mode().IsRegular()
	})
	return paths, nil
}

func isAllowedImage(name string) bool {
	return lo.Contains(AllowedExtensions, strings.ToLower(filepath.Ext(name)))
}
