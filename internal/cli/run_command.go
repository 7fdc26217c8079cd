package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depbundle/internal/app"
)

type runCommandOptions struct {
	Project   string
	Ecosystem string
	Task      string
}

func newRunCommandCommand() *cobra.Command {
	opts := runCommandOptions{}
	cmd := &cobra.Command{
		Use:   "run-command",
		Short: "Print the argv the ecosystem would use to run a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunCommand(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", ".", "Project root directory")
	cmd.Flags().StringVar(&opts.Ecosystem, "ecosystem", "", "Ecosystem override (npm, yarn, deno); auto-detected when empty")
	cmd.Flags().StringVar(&opts.Task, "task", "", "Task name")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("ecosystem", cmd.Flags().Lookup("ecosystem"))
	_ = viper.BindPFlag("task", cmd.Flags().Lookup("task"))
	return cmd
}

func runRunCommand(ctx context.Context, cmd *cobra.Command, opts runCommandOptions) error {
	service := newAppService()
	result, err := service.Command(ctx, app.CommandRequest{
		ProjectRoot: resolveString(cmd, opts.Project, "project", "project"),
		Ecosystem:   resolveString(cmd, opts.Ecosystem, "ecosystem", "ecosystem"),
		Task:        resolveString(cmd, opts.Task, "task", "task"),
	})
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(result.Argv, " "))
	return nil
}
