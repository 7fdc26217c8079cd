package ecosystems

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/core"
	"depbundle/internal/ports"
	"depbundle/internal/types"
)

const denoLockFilename = "deno.lock"

// DenoEcosystem enumerates dependencies from the declarative lock document,
// reconstructing the workspace and registry graph instead of invoking the
// tool.
type DenoEcosystem struct {
	Locator     ports.LockLocatorPort
	Descriptors ports.DescriptorPort
	Store       ports.PackageStorePort
}

func NewDenoEcosystem(locator ports.LockLocatorPort, descriptors ports.DescriptorPort, store ports.PackageStorePort) DenoEcosystem {
	return DenoEcosystem{
		Locator:     locator,
		Descriptors: descriptors,
		Store:       store,
	}
}

func (e DenoEcosystem) Name() types.EcosystemName {
	return types.EcosystemDeno
}

func (e DenoEcosystem) Detect(projectRoot string) bool {
	_, err := e.Locator.FindUpward(projectRoot, denoLockFilename)
	return err == nil
}

func (e DenoEcosystem) RunCommand(task string) []string {
	return []string{"deno", "task", task}
}

func (e DenoEcosystem) ProductionDependencies(ctx context.Context, projectRoot string, allowList []string) (types.Selection, error) {
	lockPath, err := e.Locator.FindUpward(projectRoot, denoLockFilename)
	if err != nil {
		return types.Selection{}, err
	}
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return types.Selection{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read lock document").
			WithCause(err)
	}
	doc, err := core.ParseLockDocument(data)
	if err != nil {
		return types.Selection{}, err
	}
	resolver := core.NewLockResolver(e.Descriptors, e.Store)
	return resolver.Resolve(ctx, doc, filepath.Dir(lockPath), projectRoot, allowList)
}
