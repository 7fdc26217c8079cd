package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"depbundle/internal/ecosystems"
	"depbundle/internal/types"
)

// Dependencies computes the set of directories that must be bundled as
// production dependencies of the project. An empty Only list means the full
// production closure; otherwise the result is the minimal closure reachable
// from the listed top-level package names.
func (s Service) Dependencies(ctx context.Context, req DependenciesRequest) (DependenciesResult, error) {
	root, ecosystem, err := s.resolveTarget(ctx, req.ProjectRoot, req.Ecosystem)
	if err != nil {
		return DependenciesResult{}, err
	}

	selection, err := ecosystem.ProductionDependencies(ctx, root, req.Only)
	if err != nil {
		return DependenciesResult{}, err
	}

	log.Ctx(ctx).Info().
		Str("ecosystem", string(ecosystem.Name())).
		Int("directories", selection.Len()).
		Msg("dependencies enumerated")
	return DependenciesResult{
		Ecosystem:   ecosystem.Name(),
		Directories: selection.Sorted(),
	}, nil
}

// Detect reports which ecosystem would handle the project.
func (s Service) Detect(ctx context.Context, req DetectRequest) (DetectResult, error) {
	root, ecosystem, err := s.resolveTarget(ctx, req.ProjectRoot, "")
	if err != nil {
		return DetectResult{}, err
	}
	log.Ctx(ctx).Debug().Str("project", root).Str("ecosystem", string(ecosystem.Name())).Msg("ecosystem detected")
	return DetectResult{Ecosystem: ecosystem.Name()}, nil
}

// Command builds the argv the detected (or requested) ecosystem would use to
// run a named task.
func (s Service) Command(ctx context.Context, req CommandRequest) (CommandResult, error) {
	if strings.TrimSpace(req.Task) == "" {
		return CommandResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("task name is required")
	}
	_, ecosystem, err := s.resolveTarget(ctx, req.ProjectRoot, req.Ecosystem)
	if err != nil {
		return CommandResult{}, err
	}
	argv := ecosystem.RunCommand(req.Task)
	assert.NotEmpty(ctx, argv[0], "run command must name an executable")
	return CommandResult{Ecosystem: ecosystem.Name(), Argv: argv}, nil
}

// resolveTarget validates the project root and picks the ecosystem, either
// by explicit name or by priority-ordered detection.
func (s Service) resolveTarget(ctx context.Context, projectRoot string, name string) (string, ecosystems.Ecosystem, error) {
	trimmed := strings.TrimSpace(projectRoot)
	if trimmed == "" {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project root is required")
	}
	root, err := filepath.Abs(trimmed)
	if err != nil {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid project root").
			WithCause(err)
	}

	candidates := s.ecosystems()
	if strings.TrimSpace(name) != "" {
		ecosystem, ok := ecosystems.ByName(types.EcosystemName(strings.TrimSpace(name)), candidates)
		if !ok {
			return "", nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unsupported ecosystem: %s", name))
		}
		return root, ecosystem, nil
	}
	return root, ecosystems.Detect(root, candidates), nil
}
