package ports

import "depbundle/internal/types"

// OutputPort renders a computed selection for the caller.
type OutputPort interface {
	WriteSelection(ecosystem types.EcosystemName, directories []string) error
}
