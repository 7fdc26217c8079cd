package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depbundle/internal/adapters"
	"depbundle/internal/app"
	"depbundle/internal/types"
)

type depsOptions struct {
	Project   string
	Ecosystem string
	Only      []string
	Format    string
	OutFile   string
}

func newDepsCommand() *cobra.Command {
	opts := depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "List the directories to bundle as production dependencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeps(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", ".", "Project root directory")
	cmd.Flags().StringVar(&opts.Ecosystem, "ecosystem", "", "Ecosystem override (npm, yarn, deno); auto-detected when empty")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Restrict output to the closure of these top-level package names")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&opts.OutFile, "out-file", "", "Write output to a file instead of stdout")

	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("ecosystem", cmd.Flags().Lookup("ecosystem"))
	_ = viper.BindPFlag("only", cmd.Flags().Lookup("only"))
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("out_file", cmd.Flags().Lookup("out-file"))

	return cmd
}

func runDeps(ctx context.Context, cmd *cobra.Command, opts depsOptions) error {
	service := newAppService()
	result, err := service.Dependencies(ctx, app.DependenciesRequest{
		ProjectRoot: resolveString(cmd, opts.Project, "project", "project"),
		Ecosystem:   resolveString(cmd, opts.Ecosystem, "ecosystem", "ecosystem"),
		Only:        resolveStrings(cmd, opts.Only, "only", "only"),
	})
	if err != nil {
		return err
	}
	writer := adapters.NewSelectionWriter(
		types.OutputFormat(resolveString(cmd, opts.Format, "format", "format")),
		resolveString(cmd, opts.OutFile, "out_file", "out-file"),
	)
	return writer.WriteSelection(result.Ecosystem, result.Directories)
}

func newAppService() app.Service {
	return app.NewService()
}
