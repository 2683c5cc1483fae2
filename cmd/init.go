package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/scaffold"
)

func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a flux.yaml workspace file",
		Long:  "Write a starter workspace with one project and production/development configurations",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	cmd.Flags().String("config", config.DefaultPath, "Path of the workspace file to write")
	cmd.Flags().String("name", "", "Project name (default: current directory name)")
	cmd.Flags().String("root", "", "Project root relative to the workspace")
	cmd.Flags().String("style", "", "Stylesheet language: css, scss, sass or less")
	cmd.Flags().Bool("force", false, "Overwrite an existing workspace file")
	cmd.Flags().BoolP("yes", "y", false, "Accept defaults without prompting")
	cmd.Flags().Bool("scaffold", true, "Write starter sources for files that do not exist yet")

	return cmd
}

type initAnswers struct {
	Name  string
	Root  string
	Style string
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	yes, _ := cmd.Flags().GetBool("yes")
	withSources, _ := cmd.Flags().GetBool("scaffold")

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("workspace file already exists: %s\nUse --force to overwrite", configPath)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	answers := initAnswers{}
	answers.Name, _ = cmd.Flags().GetString("name")
	answers.Root, _ = cmd.Flags().GetString("root")
	answers.Style, _ = cmd.Flags().GetString("style")
	if answers.Name == "" && yes {
		answers.Name = filepath.Base(wd)
	}
	if answers.Style == "" && yes {
		answers.Style = "css"
	}

	if err := askMissing(&answers, filepath.Base(wd)); err != nil {
		return err
	}

	ws := newWorkspace(answers)
	if err := config.WriteWorkspace(configPath, ws); err != nil {
		return err
	}

	fmt.Printf("✅ Created workspace file: %s\n", configPath)
	fmt.Printf("   Project: %s\n", answers.Name)
	if answers.Root != "" {
		fmt.Printf("   Root: %s\n", answers.Root)
	}
	fmt.Printf("   Styles: %s\n", answers.Style)

	if withSources {
		projectRoot := filepath.Join(filepath.Dir(configPath), filepath.FromSlash(answers.Root))
		written, err := scaffold.Generate(afero.NewOsFs(), projectRoot, scaffold.Data{Name: answers.Name, Style: answers.Style})
		if err != nil {
			return fmt.Errorf("failed to write starter sources: %w", err)
		}
		fmt.Printf("   Starter files: %d written\n", len(written))
	}
	fmt.Printf("\n💡 Run 'fluxbuild build %s' to build it\n", answers.Name)
	return nil
}

func askMissing(answers *initAnswers, defaultName string) error {
	if answers.Name == "" {
		prompt := &survey.Input{
			Message: "Project name:",
			Default: defaultName,
		}
		if err := survey.AskOne(prompt, &answers.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	if answers.Style == "" {
		prompt := &survey.Select{
			Message: "Stylesheet language:",
			Options: []string{"css", "scss", "sass", "less"},
			Default: "css",
		}
		if err := survey.AskOne(prompt, &answers.Style); err != nil {
			return err
		}
	}
	return nil
}

// newWorkspace lays the default project out under the chosen root
func newWorkspace(answers initAnswers) *config.Workspace {
	project := config.DefaultProjectConfig()
	opts := project.Build.Options

	if answers.Root != "" {
		root := filepath.ToSlash(answers.Root)
		sourceRoot := root + "/src"
		project.Root = &root
		project.SourceRoot = &sourceRoot
		for _, key := range []string{"main", "tsConfig", "index"} {
			opts[key] = root + "/" + opts[key].(string)
		}
		opts["assets"] = []any{sourceRoot + "/favicon.ico", sourceRoot + "/assets"}
		opts["styles"] = []any{sourceRoot + "/styles." + answers.Style}
	} else {
		opts["styles"] = []any{"src/styles." + answers.Style}
	}
	if answers.Style != "" && answers.Style != "css" {
		opts["inlineStyleLanguage"] = answers.Style
	}
	opts["outputPath"] = "dist/" + answers.Name

	cache := config.DefaultCacheConfig()
	return &config.Workspace{
		Version:  1,
		CLI:      config.CLIConfig{Cache: cache},
		Projects: map[string]config.ProjectConfig{answers.Name: project},
	}
}
