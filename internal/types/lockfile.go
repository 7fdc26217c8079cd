package types

// LockDocument is the parsed form of a declarative lock file pinning exact
// resolved versions for a project. The document describes a workspace (one
// unnamed root member or a map of local paths to members), a specifier table
// mapping declared version ranges to exact versions, and one entry map per
// known registry.
type LockDocument struct {
	// Version is the lock format version string, e.g. "5".
	Version string

	// Specifiers maps a declared range ("lodash@^4.0.0") to the exact
	// version it resolved to ("4.17.21").
	Specifiers map[string]string

	// Workspace describes the project's workspace members.
	Workspace WorkspaceSection

	// Registries holds, per registry id, the map from "name@version" lock
	// keys to registry entries. A single key may jointly describe several
	// packages joined by underscores in its version suffix.
	Registries map[RegistryID]map[string]RegistryEntry
}

// WorkspaceSection holds the workspace members of a lock document. A lock
// file either describes a single unnamed root workspace or a map of local
// paths to members; after parsing both shapes land in Members, with the
// single-root form stored under the "." path.
type WorkspaceSection struct {
	Members map[string]WorkspaceMember
}

// WorkspaceMember is one independently-named sub-project inside the
// workspace. Dependencies are declared range strings, optionally prefixed
// with a registry id ("npm:chalk@^5.0.0"); WorkspaceDependencies name other
// workspace members by their declared package name. The member's own name
// is not stored in the lock document: it is read from the member's local
// package descriptor at resolution time.
type WorkspaceMember struct {
	Dependencies          []string `json:"dependencies,omitempty"`
	WorkspaceDependencies []string `json:"workspaceDependencies,omitempty"`
}

// RegistryEntry describes one locked package version inside a registry
// section.
type RegistryEntry struct {
	Integrity    string   `json:"integrity"`
	Dependencies []string `json:"dependencies,omitempty"`
	IsBinary     bool     `json:"bin,omitempty"`
}
