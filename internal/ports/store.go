package ports

// PackageStorePort resolves a computed store directory to the real backing
// directory, following filesystem symbolic links. It isolates the on-disk
// store layout from the graph traversal so the resolver is testable without
// a real installed package store.
type PackageStorePort interface {
	ResolveDir(path string) (string, error)
}

// DescriptorPort reads the declared package name from a directory's local
// package descriptor.
type DescriptorPort interface {
	PackageName(dir string) (string, error)
}
