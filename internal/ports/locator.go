package ports

// LockLocatorPort finds a recognized lock file by walking upward from a
// start directory through its parents until the filesystem root.
type LockLocatorPort interface {
	// FindUpward returns the absolute path of the first directory at or
	// above startDir containing filename, joined with filename. A missing
	// file is a not-found error.
	FindUpward(startDir string, filename string) (string, error)
}
