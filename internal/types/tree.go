package types

// RawTreeNode is one node of the dependency tree as reported by the external
// listing tool. RawLabel is an unparsed "name@specifier" string such as
// "lodash@4.17.21" or "@babel/core@^7.20.0". Raw nodes are ephemeral: they
// exist only between parsing the tool output and normalization.
type RawTreeNode struct {
	RawLabel string        `json:"name"`
	Children []RawTreeNode `json:"children,omitempty"`
}

// ResolvedNode is a normalized dependency tree node. Path is the absolute
// on-disk directory of the package, computed by joining an accumulating
// prefix with the cleaned package name; descendants nest one storage segment
// deeper, mirroring how the ecosystem lays sub-dependencies out on disk.
//
// A ResolvedNode is owned exclusively by its parent; the whole tree is owned
// by the resolution call that built it.
type ResolvedNode struct {
	Name     string
	Path     string
	Children []*ResolvedNode
}
