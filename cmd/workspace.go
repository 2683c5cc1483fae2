package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/environ"
	"github.com/barisgit/fluxbuild/internal/logger"
	"github.com/barisgit/fluxbuild/internal/normalize"
)

// addWorkspaceFlags registers the flags shared by commands that read flux.yaml
func addWorkspaceFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", config.DefaultPath, "Path to the workspace file")
	cmd.Flags().StringP("configuration", "c", "", "Named configurations to apply, comma separated")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
}

// loadEnv reads .env from the working directory when present
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func loadWorkspace(path string) (*config.Workspace, error) {
	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              path,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		Quiet:             true,
	})
	ws, err := cm.LoadWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return ws, nil
}

// pickProject returns the named project, or the only one when no name is given
func pickProject(ws *config.Workspace, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	names := ws.ProjectNames()
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("workspace has %d projects, pick one of: %s", len(names), strings.Join(names, ", "))
}

func newNormalizer(ws *config.Workspace, log logger.Logger, version string) *normalize.Normalizer {
	return normalize.New(normalize.BuildContext{
		WorkspaceRoot: ws.Root(),
		Projects:      ws,
		Logger:        log,
		Env:           environ.Process(),
		Fs:            afero.NewOsFs(),
		Version:       version,
	})
}
