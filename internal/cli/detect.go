package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depbundle/internal/app"
)

type detectOptions struct {
	Project string
}

func newDetectCommand() *cobra.Command {
	opts := detectOptions{}
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Report which ecosystem would handle the project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", ".", "Project root directory")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	return cmd
}

func runDetect(ctx context.Context, cmd *cobra.Command, opts detectOptions) error {
	service := newAppService()
	result, err := service.Detect(ctx, app.DetectRequest{
		ProjectRoot: resolveString(cmd, opts.Project, "project", "project"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", result.Ecosystem)
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
