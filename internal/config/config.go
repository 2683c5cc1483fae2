package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"

	"github.com/barisgit/fluxbuild/internal/options"
)

// DefaultPath is the workspace file looked up in the working directory
const DefaultPath = "flux.yaml"

var ErrProjectNotFound = errors.New("project not found in workspace")

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// Workspace is the parsed flux.yaml
type Workspace struct {
	Version  int                      `yaml:"version"`
	CLI      CLIConfig                `yaml:"cli,omitempty"`
	Projects map[string]ProjectConfig `yaml:"projects"`

	root string
}

type CLIConfig struct {
	Cache CacheConfig `yaml:"cache,omitempty"`
}

type CacheConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Environment string `yaml:"environment,omitempty"` // "local", "ci", "all"
	Path        string `yaml:"path,omitempty"`
}

type ProjectConfig struct {
	Root       *string     `yaml:"root,omitempty"`
	SourceRoot *string     `yaml:"sourceRoot,omitempty"`
	Build      BuildTarget `yaml:"build"`
}

// BuildTarget keeps options untyped so configurations can be overlaid key by key
type BuildTarget struct {
	Options              map[string]any            `yaml:"options"`
	Configurations       map[string]map[string]any `yaml:"configurations,omitempty"`
	DefaultConfiguration string                    `yaml:"defaultConfiguration,omitempty"`
}

// ProjectMetadata describes one project as seen by the build
type ProjectMetadata struct {
	Name       string
	Root       *string
	SourceRoot *string
	Cache      CacheConfig
}

// DefaultCacheConfig returns the cache settings used when flux.yaml has none
func DefaultCacheConfig() CacheConfig {
	enabled := true
	return CacheConfig{
		Enabled:     &enabled,
		Environment: "local",
		Path:        ".flux/cache",
	}
}

// ConfigLoadOptions provides options for loading configuration
type ConfigLoadOptions struct {
	Path              string
	AllowMissing      bool
	ValidateStructure bool
	ApplyDefaults     bool
	Quiet             bool
}

// DefaultLoadOptions returns sensible defaults for config loading
func DefaultLoadOptions() ConfigLoadOptions {
	return ConfigLoadOptions{
		Path:              DefaultPath,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		Quiet:             false,
	}
}

// ConfigManager handles workspace loading, validation, and defaults
type ConfigManager struct {
	options ConfigLoadOptions
}

// NewConfigManager creates a new configuration manager
func NewConfigManager(options ConfigLoadOptions) *ConfigManager {
	return &ConfigManager{
		options: options,
	}
}

// LoadWorkspace loads the workspace file named in the load options
func (cm *ConfigManager) LoadWorkspace() (*Workspace, error) {
	return cm.LoadWorkspaceFromPath(cm.options.Path)
}

// LoadWorkspaceFromPath loads a workspace from a specific path
func (cm *ConfigManager) LoadWorkspaceFromPath(path string) (*Workspace, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path %s: %w", path, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if cm.options.AllowMissing {
			if !cm.options.Quiet {
				fmt.Printf("⚠️  Workspace file not found at %s, using defaults\n", path)
			}
			ws := cm.createDefaultWorkspace()
			ws.root = filepath.Dir(absPath)
			return ws, nil
		}
		return nil, fmt.Errorf("workspace file not found: %s\n\nAre you in a workspace directory?\nRun 'fluxbuild init' to create one", path)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace file %s: %w", path, err)
	}

	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse workspace file %s: %w\n\nPlease check your YAML syntax", path, err)
	}
	ws.root = filepath.Dir(absPath)

	if cm.options.ApplyDefaults {
		if err := cm.applyDefaults(&ws); err != nil {
			return nil, err
		}
	}

	if cm.options.ValidateStructure {
		if errs := cm.validateWorkspace(&ws); errs.HasErrors() {
			return nil, fmt.Errorf("workspace validation failed:\n%s", formatValidationErrors(errs))
		}
	}

	return &ws, nil
}

func (cm *ConfigManager) validateWorkspace(ws *Workspace) ValidationErrors {
	var errors ValidationErrors

	if ws.Version != 1 {
		errors = append(errors, ValidationError{
			Field:   "version",
			Value:   ws.Version,
			Message: "only workspace version 1 is supported",
		})
	}

	if len(ws.Projects) == 0 {
		errors = append(errors, ValidationError{
			Field:   "projects",
			Value:   len(ws.Projects),
			Message: "workspace must define at least one project",
		})
	}

	if env := ws.CLI.Cache.Environment; env != "" {
		validEnvironments := []string{"local", "ci", "all"}
		if !contains(validEnvironments, env) {
			errors = append(errors, ValidationError{
				Field:   "cli.cache.environment",
				Value:   env,
				Message: fmt.Sprintf("unsupported cache environment '%s', valid options are: %s", env, strings.Join(validEnvironments, ", ")),
			})
		}
	}

	for _, name := range ws.ProjectNames() {
		project := ws.Projects[name]
		if project.Build.Options == nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("projects.%s.build.options", name),
				Value:   nil,
				Message: "build options cannot be empty",
			})
		}
		if def := project.Build.DefaultConfiguration; def != "" {
			for _, c := range splitConfigurations(def) {
				if _, ok := project.Build.Configurations[c]; !ok {
					errors = append(errors, ValidationError{
						Field:   fmt.Sprintf("projects.%s.build.defaultConfiguration", name),
						Value:   def,
						Message: fmt.Sprintf("configuration '%s' is not defined", c),
					})
				}
			}
		}
	}

	return errors
}

func (cm *ConfigManager) applyDefaults(ws *Workspace) error {
	if ws.Version == 0 {
		ws.Version = 1
	}
	if err := mergo.Merge(&ws.CLI.Cache, DefaultCacheConfig()); err != nil {
		return fmt.Errorf("failed to apply cache defaults: %w", err)
	}
	return nil
}

func (cm *ConfigManager) createDefaultWorkspace() *Workspace {
	return &Workspace{
		Version: 1,
		CLI:     CLIConfig{Cache: DefaultCacheConfig()},
		Projects: map[string]ProjectConfig{
			"app": DefaultProjectConfig(),
		},
	}
}

// DefaultProjectConfig is the single-project layout written by `fluxbuild init`
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Build: BuildTarget{
			Options: map[string]any{
				"main":       "src/main.ts",
				"polyfills":  []any{"zone.js"},
				"tsConfig":   "tsconfig.app.json",
				"outputPath": "dist/app",
				"index":      "src/index.html",
				"assets":     []any{"src/favicon.ico", "src/assets"},
				"styles":     []any{"src/styles.css"},
			},
			Configurations: map[string]map[string]any{
				"production": {
					"optimization":    true,
					"outputHashing":   "all",
					"extractLicenses": true,
				},
				"development": {
					"optimization": false,
					"sourceMap":    true,
				},
			},
			DefaultConfiguration: "production",
		},
	}
}

// Root returns the absolute directory containing the workspace file
func (w *Workspace) Root() string {
	return w.root
}

// ProjectNames returns the project names in stable order
func (w *Workspace) ProjectNames() []string {
	names := make([]string, 0, len(w.Projects))
	for name := range w.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProjectMetadata looks up one project
func (w *Workspace) ProjectMetadata(ctx context.Context, name string) (*ProjectMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	project, ok := w.Projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	return &ProjectMetadata{
		Name:       name,
		Root:       project.Root,
		SourceRoot: project.SourceRoot,
		Cache:      w.CLI.Cache,
	}, nil
}

// BuildOptions returns the options of a project with the named configurations
// (comma separated, applied left to right) laid over the base options.
// An empty configuration selects the project's default configuration.
func (w *Workspace) BuildOptions(project, configuration string) (*options.BuildOptions, error) {
	p, ok := w.Projects[project]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, project)
	}

	merged, _ := deepcopy.Copy(p.Build.Options).(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}

	if configuration == "" {
		configuration = p.Build.DefaultConfiguration
	}
	for _, name := range splitConfigurations(configuration) {
		overlay, ok := p.Build.Configurations[name]
		if !ok {
			return nil, fmt.Errorf("configuration '%s' is not defined for project '%s'", name, project)
		}
		overlayCopy, _ := deepcopy.Copy(overlay).(map[string]any)
		maps.Copy(merged, overlayCopy)
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode build options for %s: %w", project, err)
	}
	opts, err := options.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", project, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", project, toValidationErrors(err))
	}
	return opts, nil
}

func toValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Namespace(),
			Value:   fe.Value(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
		})
	}
	return out
}

func splitConfigurations(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// formatValidationErrors formats validation errors in a user-friendly way
func formatValidationErrors(errors ValidationErrors) string {
	var lines []string
	for i, err := range errors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}
	return strings.Join(lines, "\n")
}

// ValidateWorkspaceFile validates a workspace file and every project's build options
func ValidateWorkspaceFile(path string) error {
	cm := NewConfigManager(ConfigLoadOptions{
		Path:              path,
		ValidateStructure: true,
		ApplyDefaults:     true,
		Quiet:             true,
	})

	ws, err := cm.LoadWorkspaceFromPath(path)
	if err != nil {
		return err
	}
	for _, name := range ws.ProjectNames() {
		if _, err := ws.BuildOptions(name, ""); err != nil {
			return err
		}
	}
	return nil
}

// WorkspaceInfo contains summary information about a workspace
type WorkspaceInfo struct {
	Path     string
	Projects []string
	Cache    CacheConfig
}

// GetWorkspaceInfo returns information about the workspace at path
func GetWorkspaceInfo(path string) (*WorkspaceInfo, error) {
	cm := NewConfigManager(DefaultLoadOptions())
	ws, err := cm.LoadWorkspaceFromPath(path)
	if err != nil {
		return nil, err
	}

	absPath, _ := filepath.Abs(path)

	return &WorkspaceInfo{
		Path:     absPath,
		Projects: ws.ProjectNames(),
		Cache:    ws.CLI.Cache,
	}, nil
}

// String returns a formatted string representation of workspace info
func (info *WorkspaceInfo) String() string {
	var lines []string
	lines = append(lines, "📋 Workspace Summary")
	lines = append(lines, fmt.Sprintf("   Path: %s", info.Path))
	lines = append(lines, fmt.Sprintf("   Projects: %s", strings.Join(info.Projects, ", ")))
	if info.Cache.Enabled != nil && *info.Cache.Enabled {
		lines = append(lines, fmt.Sprintf("   Cache: %s (%s)", info.Cache.Path, info.Cache.Environment))
	} else {
		lines = append(lines, "   Cache: disabled")
	}

	return strings.Join(lines, "\n")
}

// WriteWorkspace writes ws as YAML to path
func WriteWorkspace(path string, ws *Workspace) error {
	data, err := yaml.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
