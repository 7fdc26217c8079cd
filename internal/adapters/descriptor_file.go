package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/ports"
)

// descriptorFilenames are probed in order; the first descriptor declaring a
// non-empty name wins.
var descriptorFilenames = []string{"package.json", "deno.json"}

// DescriptorFileAdapter reads the declared package name from a directory's
// local package descriptor.
type DescriptorFileAdapter struct{}

func NewDescriptorFileAdapter() DescriptorFileAdapter {
	return DescriptorFileAdapter{}
}

func (a DescriptorFileAdapter) PackageName(dir string) (string, error) {
	for _, filename := range descriptorFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			continue
		}
		var descriptor struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &descriptor); err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("failed to parse %s in %s", filename, dir)).
				WithCause(err)
		}
		if descriptor.Name != "" {
			return descriptor.Name, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no package descriptor with a name in %s", dir))
}

var _ ports.DescriptorPort = DescriptorFileAdapter{}
