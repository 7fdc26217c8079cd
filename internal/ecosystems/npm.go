package ecosystems

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/ports"
	"depbundle/internal/types"
)

// brokenNPMRange is the band of releases whose parseable listing output is
// known to be unusable.
const brokenNPMRange = ">=9.0.0, <9.2.0"

// NPMEcosystem is the enumeration-only resolver: it asks the tool for a
// fully-expanded production listing in absolute-path lines and builds no
// graph. It is also the detection default when no lock signal matches.
type NPMEcosystem struct {
	Runner ports.ToolRunnerPort
}

func NewNPMEcosystem(runner ports.ToolRunnerPort) NPMEcosystem {
	return NPMEcosystem{Runner: runner}
}

func (e NPMEcosystem) Name() types.EcosystemName {
	return types.EcosystemNPM
}

func (e NPMEcosystem) Detect(projectRoot string) bool {
	_, err := os.Stat(filepath.Join(projectRoot, "package-lock.json"))
	return err == nil
}

func (e NPMEcosystem) RunCommand(task string) []string {
	return []string{"npm", "run", task}
}

func (e NPMEcosystem) ProductionDependencies(ctx context.Context, projectRoot string, allowList []string) (types.Selection, error) {
	if err := e.checkToolVersion(ctx, projectRoot); err != nil {
		return types.Selection{}, err
	}
	argv := []string{"npm", "ls", "--all", "--omit=dev", "--parseable"}
	output, err := e.Runner.Run(ctx, projectRoot, argv)
	if err != nil {
		return types.Selection{}, err
	}

	selection := types.NewSelection(projectRoot)
	for _, line := range strings.Split(string(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !filepath.IsAbs(trimmed) {
			continue
		}
		selection.Add(trimmed)
	}
	if len(allowList) > 0 {
		selection = filterByAllowList(selection, projectRoot, allowList)
	}
	return selection, nil
}

// checkToolVersion rejects the known-broken release band before invoking the
// listing command.
func (e NPMEcosystem) checkToolVersion(ctx context.Context, projectRoot string) error {
	output, err := e.Runner.Run(ctx, projectRoot, []string{"npm", "--version"})
	if err != nil {
		return err
	}
	raw := strings.TrimSpace(string(output))
	version, err := semver.NewVersion(raw)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("unparsable npm version: %s", raw)).
			WithCause(err)
	}
	broken, err := semver.NewConstraint(brokenNPMRange)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("invalid broken-version constraint").
			WithCause(err)
	}
	if broken.Check(version) {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("npm %s produces broken dependency listings; upgrade npm to 9.2.0 or newer, or downgrade below 9.0.0", raw))
	}
	return nil
}

// filterByAllowList keeps directories that sit under an allow-listed
// top-level package directory. The flat listing carries no graph, so the
// only structure available is the path itself.
func filterByAllowList(selection types.Selection, projectRoot string, allowList []string) types.Selection {
	filtered := types.NewSelection(projectRoot)
	prefixes := make([]string, 0, len(allowList))
	for _, name := range allowList {
		prefixes = append(prefixes, filepath.Join(projectRoot, "node_modules", name))
	}
	for _, dir := range selection.Sorted() {
		for _, prefix := range prefixes {
			if dir == prefix || strings.HasPrefix(dir, prefix+string(filepath.Separator)) {
				filtered.Add(dir)
				break
			}
		}
	}
	return filtered
}
