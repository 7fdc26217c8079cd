package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/ports"
)

// LockLocatorAdapter walks upward from a start directory through its parents
// looking for a recognized lock filename.
type LockLocatorAdapter struct{}

func NewLockLocatorAdapter() LockLocatorAdapter {
	return LockLocatorAdapter{}
}

func (a LockLocatorAdapter) FindUpward(startDir string, filename string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid start directory").
			WithCause(err)
	}
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found in %s or any parent directory", filename, startDir))
}

var _ ports.LockLocatorPort = LockLocatorAdapter{}
