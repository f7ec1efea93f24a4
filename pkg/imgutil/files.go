package imgutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var supportedExts = map[string]Kind{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".png":  KindPNG,
	".webp": KindWebP,
}

// IsSupported reports whether name carries a supported image extension.
// The comparison is case-insensitive.
func IsSupported(name string) bool {
	_, ok := supportedExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// KindFromName maps a file extension to its image kind.
func KindFromName(name string) Kind {
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the supported regular files directly under dir, sorted by
// name. Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
