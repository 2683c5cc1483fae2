package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/logger"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace configuration",
		Long:  "Validate flux.yaml and show the normalized build options of a project",
	}

	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configShowCmd())

	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate the workspace file",
		Long:  "Check the structure of flux.yaml and the build options of every project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [project]",
		Short: "Show the normalized build options",
		Long:  "Print the fully resolved build configuration of a project as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}

	addWorkspaceFlags(cmd)
	cmd.Flags().Bool("raw", false, "Show the merged options before normalization")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := config.DefaultPath
	if len(args) > 0 {
		configPath = args[0]
	}

	fmt.Printf("🔍 Validating workspace file: %s\n", configPath)

	if err := config.ValidateWorkspaceFile(configPath); err != nil {
		fmt.Printf("❌ Workspace validation failed:\n%v\n", err)
		return err
	}

	fmt.Printf("✅ Workspace is valid!\n")

	if info, err := config.GetWorkspaceInfo(configPath); err == nil {
		fmt.Printf("\n%s\n", info.String())
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	configuration, _ := cmd.Flags().GetString("configuration")
	debug, _ := cmd.Flags().GetBool("debug")
	raw, _ := cmd.Flags().GetBool("raw")

	if err := loadEnv(); err != nil {
		return err
	}
	ws, err := loadWorkspace(configPath)
	if err != nil {
		return err
	}
	project, err := pickProject(ws, args)
	if err != nil {
		return err
	}

	opts, err := ws.BuildOptions(project, configuration)
	if err != nil {
		return err
	}

	var out any = opts
	if !raw {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		n, err := newNormalizer(ws, logger.FromDebug(debug), cmd.Root().Version).Normalize(ctx, project, opts)
		if err != nil {
			return fmt.Errorf("failed to normalize build options: %w", err)
		}
		out = n
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
