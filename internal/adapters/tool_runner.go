package adapters

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/ports"
	"depbundle/internal/shared"
)

// ExecToolRunner runs package-manager commands as subprocesses. Cancelling
// the context kills the subprocess and fails the call.
type ExecToolRunner struct{}

func NewExecToolRunner() ExecToolRunner {
	return ExecToolRunner{}
}

func (a ExecToolRunner) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("tool command is empty")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		detail := []byte(err.Error())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			detail = exitErr.Stderr
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(strings.Join(argv, " ") + " failed").
			WithCause(shared.CommandError(detail, err))
	}
	return output, nil
}

var _ ports.ToolRunnerPort = ExecToolRunner{}
