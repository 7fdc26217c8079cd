package adapters

import (
	"path/filepath"

	"depbundle/internal/ports"
)

// FilesystemStore resolves computed store directories against the real
// filesystem, following symbolic links to the backing directory.
type FilesystemStore struct{}

func NewFilesystemStore() FilesystemStore {
	return FilesystemStore{}
}

func (a FilesystemStore) ResolveDir(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Not materialized on disk; report the computed location.
		return filepath.Clean(path), nil
	}
	return resolved, nil
}

var _ ports.PackageStorePort = FilesystemStore{}
