package dedupe

import (
	"errors"
	"io/fs"
	"os"
)

// Remover deletes files from the working set.
type Remover interface {
	Remove(path string) error
}

// FileRemover deletes files from disk. A file that is already gone counts as
// removed.
type FileRemover struct{}

func (FileRemover) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// DryRun records removals without touching the filesystem.
type DryRun struct {
	Removed []string
}

func (d *DryRun) Remove(path string) error {
	d.Removed = append(d.Removed, path)
	return nil
}
