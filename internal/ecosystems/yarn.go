package ecosystems

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/core"
	"depbundle/internal/ports"
	"depbundle/internal/types"
)

// yarnTreeMarker opens the single NDJSON line carrying the dependency tree.
const yarnTreeMarker = `{"type":"tree"`

// YarnEcosystem enumerates dependencies by asking yarn for its production
// dependency tree and resolving it against the nested node_modules layout.
type YarnEcosystem struct {
	Runner ports.ToolRunnerPort
}

func NewYarnEcosystem(runner ports.ToolRunnerPort) YarnEcosystem {
	return YarnEcosystem{Runner: runner}
}

func (e YarnEcosystem) Name() types.EcosystemName {
	return types.EcosystemYarn
}

func (e YarnEcosystem) Detect(projectRoot string) bool {
	_, err := os.Stat(filepath.Join(projectRoot, "yarn.lock"))
	return err == nil
}

func (e YarnEcosystem) RunCommand(task string) []string {
	return []string{"yarn", "run", task}
}

func (e YarnEcosystem) ProductionDependencies(ctx context.Context, projectRoot string, allowList []string) (types.Selection, error) {
	output, err := e.Runner.Run(ctx, projectRoot, []string{"yarn", "list", "--prod", "--json"})
	if err != nil {
		return types.Selection{}, err
	}
	forest, err := parseTreeOutput(output)
	if err != nil {
		return types.Selection{}, err
	}
	return core.ResolveTree(ctx, forest, projectRoot, allowList)
}

// yarnTreeLine is the NDJSON line shape emitted by `yarn list --json`.
type yarnTreeLine struct {
	Type string `json:"type"`
	Data struct {
		Trees []types.RawTreeNode `json:"trees"`
	} `json:"data"`
}

// parseTreeOutput extracts the dependency forest from the tool's NDJSON
// output. Exactly one line must begin with the tree marker; absence or
// duplication is a fatal parse error.
func parseTreeOutput(output []byte) ([]types.RawTreeNode, error) {
	var treeLine string
	count := 0
	for _, line := range strings.Split(string(output), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, yarnTreeMarker) {
			treeLine = trimmed
			count++
		}
	}
	if count != 1 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("expected exactly one tree line in listing output, found %d", count))
	}
	var parsed yarnTreeLine
	if err := json.Unmarshal([]byte(treeLine), &parsed); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to parse dependency tree output").
			WithCause(err)
	}
	return parsed.Data.Trees, nil
}
