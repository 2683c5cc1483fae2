package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barisgit/fluxbuild/internal/options"
)

const testWorkspace = `
version: 1
projects:
  app:
    root: projects/app
    sourceRoot: projects/app/src
    build:
      options:
        main: projects/app/src/main.ts
        tsConfig: projects/app/tsconfig.json
        outputPath: dist/app
        sourceMap: true
        styles: [projects/app/src/styles.css]
      configurations:
        production:
          outputHashing: all
          sourceMap: false
        ci:
          outputHashing: bundles
          verbose: true
      defaultConfiguration: production
  lib:
    build:
      options:
        main: src/index.ts
        tsConfig: tsconfig.json
        outputPath: dist/lib
`

func writeWorkspace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flux.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test workspace file: %v", err)
	}
	return path
}

func TestValidationErrors(t *testing.T) {
	emptyErrs := ValidationErrors{}
	if emptyErrs.Error() != "no validation errors" {
		t.Errorf("Expected 'no validation errors', got '%s'", emptyErrs.Error())
	}
	if emptyErrs.HasErrors() {
		t.Error("Expected HasErrors() to be false for empty errors")
	}

	errs := ValidationErrors{
		ValidationError{Field: "field1", Value: "value1", Message: "message1"},
		ValidationError{Field: "field2", Value: "value2", Message: "message2"},
	}
	if !errs.HasErrors() {
		t.Error("Expected HasErrors() to be true for non-empty errors")
	}
	if msg := errs.Error(); !strings.Contains(msg, "field1") || !strings.Contains(msg, "field2") {
		t.Errorf("Expected error message to contain both fields, got '%s'", msg)
	}
}

func TestDefaultLoadOptions(t *testing.T) {
	options := DefaultLoadOptions()

	if options.Path != "flux.yaml" {
		t.Errorf("Expected default path 'flux.yaml', got '%s'", options.Path)
	}
	if options.AllowMissing {
		t.Error("Expected AllowMissing to be false by default")
	}
	if !options.ValidateStructure {
		t.Error("Expected ValidateStructure to be true by default")
	}
	if !options.ApplyDefaults {
		t.Error("Expected ApplyDefaults to be true by default")
	}
}

func TestLoadWorkspaceMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cm := NewConfigManager(ConfigLoadOptions{Path: missing})
	if _, err := cm.LoadWorkspace(); err == nil {
		t.Error("Expected error for missing file when AllowMissing is false")
	}

	cm2 := NewConfigManager(ConfigLoadOptions{Path: missing, AllowMissing: true, Quiet: true})
	ws, err := cm2.LoadWorkspace()
	if err != nil {
		t.Fatalf("Expected no error when AllowMissing is true, got %v", err)
	}
	if _, ok := ws.Projects["app"]; !ok {
		t.Error("Expected default workspace to contain the 'app' project")
	}
	if ws.Root() != filepath.Dir(missing) {
		t.Errorf("Expected root %s, got %s", filepath.Dir(missing), ws.Root())
	}
}

func TestLoadWorkspaceAppliesDefaults(t *testing.T) {
	path := writeWorkspace(t, testWorkspace)

	ws, err := NewConfigManager(ConfigLoadOptions{Path: path, ApplyDefaults: true, ValidateStructure: true}).LoadWorkspace()
	if err != nil {
		t.Fatalf("Expected no error for valid workspace, got %v", err)
	}
	if ws.CLI.Cache.Enabled == nil || !*ws.CLI.Cache.Enabled {
		t.Error("Expected cache to be enabled by default")
	}
	if ws.CLI.Cache.Environment != "local" {
		t.Errorf("Expected cache environment 'local', got '%s'", ws.CLI.Cache.Environment)
	}
	if ws.CLI.Cache.Path != ".flux/cache" {
		t.Errorf("Expected cache path '.flux/cache', got '%s'", ws.CLI.Cache.Path)
	}
	if got := ws.ProjectNames(); len(got) != 2 || got[0] != "app" || got[1] != "lib" {
		t.Errorf("Expected projects [app lib], got %v", got)
	}
}

func TestLoadWorkspaceInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unsupported version",
			content: "version: 2\nprojects:\n  app:\n    build:\n      options: {main: a}\n",
			field:   "version",
		},
		{
			name:    "no projects",
			content: "version: 1\n",
			field:   "projects",
		},
		{
			name:    "unknown default configuration",
			content: "version: 1\nprojects:\n  app:\n    build:\n      options: {main: a}\n      defaultConfiguration: prod\n",
			field:   "defaultConfiguration",
		},
		{
			name:    "bad cache environment",
			content: "version: 1\ncli:\n  cache:\n    environment: cloud\nprojects:\n  app:\n    build:\n      options: {main: a}\n",
			field:   "cli.cache.environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWorkspace(t, tt.content)
			_, err := NewConfigManager(ConfigLoadOptions{Path: path, ValidateStructure: true}).LoadWorkspace()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected error to mention '%s', got '%v'", tt.field, err)
			}
		})
	}
}

func TestProjectMetadata(t *testing.T) {
	path := writeWorkspace(t, testWorkspace)
	ws, err := NewConfigManager(DefaultLoadOptions()).LoadWorkspaceFromPath(path)
	if err != nil {
		t.Fatalf("Failed to load workspace: %v", err)
	}

	meta, err := ws.ProjectMetadata(context.Background(), "app")
	if err != nil {
		t.Fatalf("Expected metadata, got %v", err)
	}
	if meta.Root == nil || *meta.Root != "projects/app" {
		t.Errorf("Expected root 'projects/app', got %v", meta.Root)
	}

	lib, err := ws.ProjectMetadata(context.Background(), "lib")
	if err != nil {
		t.Fatalf("Expected metadata, got %v", err)
	}
	if lib.Root != nil || lib.SourceRoot != nil {
		t.Error("Expected unset root and source root for lib")
	}

	if _, err := ws.ProjectMetadata(context.Background(), "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ws.ProjectMetadata(ctx, "app"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBuildOptionsConfigurations(t *testing.T) {
	path := writeWorkspace(t, testWorkspace)
	ws, err := NewConfigManager(DefaultLoadOptions()).LoadWorkspaceFromPath(path)
	if err != nil {
		t.Fatalf("Failed to load workspace: %v", err)
	}

	opts, err := ws.BuildOptions("app", "")
	if err != nil {
		t.Fatalf("Expected default configuration to apply, got %v", err)
	}
	if opts.OutputHashing != options.OutputHashingAll {
		t.Errorf("Expected outputHashing 'all', got '%s'", opts.OutputHashing)
	}
	if opts.SourceMap == nil || opts.SourceMap.Bool {
		t.Error("Expected production configuration to disable source maps")
	}

	opts, err = ws.BuildOptions("app", "production, ci")
	if err != nil {
		t.Fatalf("Expected stacked configurations, got %v", err)
	}
	if opts.OutputHashing != options.OutputHashingBundles || !opts.Verbose {
		t.Errorf("Expected the last configuration to win, got hashing=%s verbose=%t", opts.OutputHashing, opts.Verbose)
	}

	again, err := ws.BuildOptions("app", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if again.Verbose {
		t.Error("Expected overlays not to leak into the stored workspace options")
	}

	if _, err := ws.BuildOptions("app", "staging"); err == nil {
		t.Error("Expected error for unknown configuration")
	}
}

func TestBuildOptionsValidation(t *testing.T) {
	path := writeWorkspace(t, `
version: 1
projects:
  app:
    build:
      options:
        main: src/main.ts
        outputPath: dist
`)
	ws, err := NewConfigManager(DefaultLoadOptions()).LoadWorkspaceFromPath(path)
	if err != nil {
		t.Fatalf("Failed to load workspace: %v", err)
	}

	_, err = ws.BuildOptions("app", "")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 1 || !strings.Contains(verrs[0].Field, "TsConfig") {
		t.Errorf("Expected a single TsConfig error, got %v", verrs)
	}
}

func TestWriteWorkspaceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flux.yaml")
	ws := &Workspace{
		Version:  1,
		Projects: map[string]ProjectConfig{"app": DefaultProjectConfig()},
	}
	if err := WriteWorkspace(path, ws); err != nil {
		t.Fatalf("Failed to write workspace: %v", err)
	}
	if err := ValidateWorkspaceFile(path); err != nil {
		t.Errorf("Expected written workspace to validate, got %v", err)
	}
}

func TestValidateWorkspaceFileWithoutVersion(t *testing.T) {
	path := writeWorkspace(t, `
projects:
  app:
    build:
      options:
        main: src/main.ts
        tsConfig: tsconfig.json
        outputPath: dist/app
`)

	if err := ValidateWorkspaceFile(path); err != nil {
		t.Fatalf("Expected a workspace without version to validate, got: %v", err)
	}

	ws, err := NewConfigManager(DefaultLoadOptions()).LoadWorkspaceFromPath(path)
	if err != nil {
		t.Fatalf("Expected the build loader to accept the same file, got: %v", err)
	}
	if ws.Version != 1 {
		t.Errorf("Expected version to default to 1, got %d", ws.Version)
	}
}
