package adapters

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depbundle/internal/ports"
	"depbundle/internal/types"
)

// SelectionWriter renders a computed selection as text, JSON, or YAML, to
// stdout or to a file.
type SelectionWriter struct {
	Format types.OutputFormat
	Path   string
	Out    io.Writer
}

func NewSelectionWriter(format types.OutputFormat, path string) SelectionWriter {
	return SelectionWriter{
		Format: format,
		Path:   path,
		Out:    os.Stdout,
	}
}

// selectionDocument is the structured rendering for JSON and YAML output.
type selectionDocument struct {
	Ecosystem   types.EcosystemName `json:"ecosystem" yaml:"ecosystem"`
	Directories []string            `json:"directories" yaml:"directories"`
}

func (w SelectionWriter) WriteSelection(ecosystem types.EcosystemName, directories []string) error {
	rendered, err := w.render(ecosystem, directories)
	if err != nil {
		return err
	}
	if w.Path != "" {
		if err := os.WriteFile(w.Path, rendered, 0644); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write selection output").
				WithCause(err)
		}
		return nil
	}
	_, err = w.Out.Write(rendered)
	return err
}

func (w SelectionWriter) render(ecosystem types.EcosystemName, directories []string) ([]byte, error) {
	doc := selectionDocument{Ecosystem: ecosystem, Directories: directories}
	switch w.Format {
	case types.OutputFormatJSON:
		rendered, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode selection as json").
				WithCause(err)
		}
		return append(rendered, '\n'), nil
	case types.OutputFormatYAML:
		rendered, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode selection as yaml").
				WithCause(err)
		}
		return rendered, nil
	case types.OutputFormatText, "":
		return []byte(strings.Join(directories, "\n") + "\n"), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported output format: " + string(w.Format))
	}
}

var _ ports.OutputPort = SelectionWriter{}
