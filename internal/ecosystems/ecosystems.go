// Package ecosystems holds the closed set of supported dependency-management
// ecosystems behind one structural contract, plus the priority-ordered
// detector that picks one for a project.
package ecosystems

import (
	"context"

	"depbundle/internal/ports"
	"depbundle/internal/types"
)

// Ecosystem is the uniform shape every supported package-manager family
// implements. Detect is a pure, idempotent predicate: it may read the
// filesystem but never mutates it.
type Ecosystem interface {
	Name() types.EcosystemName
	Detect(projectRoot string) bool
	RunCommand(task string) []string
	ProductionDependencies(ctx context.Context, projectRoot string, allowList []string) (types.Selection, error)
}

// Deps bundles the injectable collaborators the ecosystems need.
type Deps struct {
	Runner      ports.ToolRunnerPort
	Store       ports.PackageStorePort
	Descriptors ports.DescriptorPort
	Locator     ports.LockLocatorPort
}

// All returns the supported ecosystems in detection priority order: the most
// specific lock signal first, the enumeration-only default last.
func All(deps Deps) []Ecosystem {
	return []Ecosystem{
		NewDenoEcosystem(deps.Locator, deps.Descriptors, deps.Store),
		NewYarnEcosystem(deps.Runner),
		NewNPMEcosystem(deps.Runner),
	}
}

// Detect probes the project directory against each ecosystem in order and
// returns the first match. When nothing matches, the last entry (the
// enumeration-only ecosystem) is the default.
func Detect(projectRoot string, candidates []Ecosystem) Ecosystem {
	for _, candidate := range candidates {
		if candidate.Detect(projectRoot) {
			return candidate
		}
	}
	return candidates[len(candidates)-1]
}

// ByName returns the ecosystem with the given name, or false when the name
// is not one of the supported set.
func ByName(name types.EcosystemName, candidates []Ecosystem) (Ecosystem, bool) {
	for _, candidate := range candidates {
		if candidate.Name() == name {
			return candidate, true
		}
	}
	return nil, false
}
