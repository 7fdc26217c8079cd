package ports

import "context"

// ToolRunnerPort invokes an external package-manager command and returns its
// stdout. The subprocess is an opaque collaborator: it either produces raw
// text/JSON or fails. Cancelling the context terminates the subprocess and
// fails the pending call.
type ToolRunnerPort interface {
	Run(ctx context.Context, dir string, argv []string) ([]byte, error)
}
