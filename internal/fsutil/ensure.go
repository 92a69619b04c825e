package fsutil

import (
	"errors"
	"io/fs"
	"os"

	"github.com/giobyte8/imgvariants/internal/variants"
)

const DirPerm = 0755

// DirEnsurer creates a directory and all missing parents. It must be
// safe to call concurrently for the same or nested paths.
type DirEnsurer func(path string) error

// EnsureDir recursively creates path. An existing directory is not an
// error, including one created by a concurrent caller in between.
func EnsureDir(path string) error {
	err := os.MkdirAll(path, DirPerm)
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrExist) {
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return nil
		}
	}

	return &variants.DirectoryError{Path: path, Err: err}
}
