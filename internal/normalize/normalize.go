// Package normalize turns the raw build options of one project into the fully
// resolved configuration handed to the bundler.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/environ"
	"github.com/barisgit/fluxbuild/internal/locator"
	"github.com/barisgit/fluxbuild/internal/logger"
	"github.com/barisgit/fluxbuild/internal/options"
	"github.com/barisgit/fluxbuild/internal/resolve"
)

// DefaultServiceWorkerConfig is looked up in the project root when no path is given
const DefaultServiceWorkerConfig = "ngsw-config.json"

const tailwindPackage = "tailwindcss"

// MetadataSource fetches the workspace entry of a project
type MetadataSource interface {
	ProjectMetadata(ctx context.Context, name string) (*config.ProjectMetadata, error)
}

// PackageResolver finds an installed package relative to a directory
type PackageResolver interface {
	Resolve(pkg, fromDir string) (string, error)
}

// BuildContext is everything the normalizer needs besides the raw options
type BuildContext struct {
	WorkspaceRoot string
	Projects      MetadataSource
	Logger        logger.Logger
	Env           environ.Environment
	Fs            afero.Fs
	Resolver      PackageResolver
	// Version names the cache subdirectory
	Version string
}

// Options is the normalized build configuration. Every path is absolute.
type Options struct {
	WorkspaceRoot     string `yaml:"workspaceRoot"`
	ProjectRoot       string `yaml:"projectRoot"`
	ProjectSourceRoot string `yaml:"projectSourceRoot"`
	TsConfig          string `yaml:"tsConfig"`
	OutputPath        string `yaml:"outputPath"`

	EntryPoints      map[string]string `yaml:"entryPoints"`
	Polyfills        []string          `yaml:"polyfills,omitempty"`
	OutputNames      OutputNames       `yaml:"outputNames"`
	FileReplacements map[string]string `yaml:"fileReplacements,omitempty"`
	GlobalStyles     []GlobalStyle     `yaml:"globalStyles,omitempty"`
	Assets           []AssetPattern    `yaml:"assets,omitempty"`

	CacheOptions        CacheOptions  `yaml:"cacheOptions"`
	OptimizationOptions Optimization  `yaml:"optimization"`
	SourcemapOptions    SourceMaps    `yaml:"sourceMap"`
	ServiceWorkerConfig string        `yaml:"serviceWorkerConfig,omitempty"`
	IndexHTMLOptions    *IndexHTML    `yaml:"indexHtml,omitempty"`
	Tailwind            *TailwindInfo `yaml:"tailwind,omitempty"`

	AdvancedOptimizations       bool                              `yaml:"advancedOptimizations"`
	AllowedCommonJsDependencies []string                          `yaml:"allowedCommonJsDependencies,omitempty"`
	BaseHref                    string                            `yaml:"baseHref,omitempty"`
	CrossOrigin                 options.CrossOrigin               `yaml:"crossOrigin,omitempty"`
	ExternalDependencies        []string                          `yaml:"externalDependencies,omitempty"`
	ExtractLicenses             bool                              `yaml:"extractLicenses"`
	InlineStyleLanguage         options.InlineStyleLanguage       `yaml:"inlineStyleLanguage"`
	JIT                         bool                              `yaml:"jit"`
	Poll                        int                               `yaml:"poll,omitempty"`
	PreserveSymlinks            bool                              `yaml:"preserveSymlinks"`
	Stats                       bool                              `yaml:"stats"`
	StylePreprocessorOptions    *options.StylePreprocessorOptions `yaml:"stylePreprocessorOptions,omitempty"`
	SubresourceIntegrity        bool                              `yaml:"subresourceIntegrity"`
	Verbose                     bool                              `yaml:"verbose"`
	Watch                       bool                              `yaml:"watch"`
}

// TailwindInfo is only set when both the config file and the package were found
type TailwindInfo struct {
	File    string `yaml:"file"`
	Package string `yaml:"package"`
}

type Normalizer struct {
	bc       BuildContext
	tailwind *locator.Locator
}

// New fills unset collaborators with their process defaults
func New(bc BuildContext) *Normalizer {
	if bc.Fs == nil {
		bc.Fs = afero.NewOsFs()
	}
	if bc.Logger == nil {
		bc.Logger = logger.Discard()
	}
	if bc.Env == nil {
		bc.Env = environ.Process()
	}
	if bc.Resolver == nil {
		bc.Resolver = resolve.New(bc.Fs)
	}
	return &Normalizer{bc: bc, tailwind: locator.Tailwind(bc.Fs)}
}

// Normalize resolves raw into Options. Any failure aborts the whole call; the
// only recovered conditions are extra polyfills and a missing Tailwind package,
// both reported through the logger.
func (n *Normalizer) Normalize(ctx context.Context, projectName string, raw *options.BuildOptions) (*Options, error) {
	workspaceRoot := n.bc.WorkspaceRoot

	meta, err := n.bc.Projects.ProjectMetadata(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for project %s: %w", projectName, err)
	}
	projectRoot := filepath.Join(workspaceRoot, ProjectRootOf(meta))
	projectSourceRoot := filepath.Join(workspaceRoot, SourceRootOf(meta))

	cacheOptions := normalizeCacheOptions(meta, workspaceRoot, n.bc.Env, n.bc.Version)

	mainEntryPoint := resolvePath(workspaceRoot, raw.Main)

	polyfills := normalizePolyfills(n.bc.Fs, raw.Polyfills, workspaceRoot)
	if len(polyfills) > 1 {
		n.bc.Logger.Warn("The bundler accepts a single polyfills entry file. Only the first polyfill file will be used.",
			"polyfills", len(polyfills))
	}

	tsconfig := resolvePath(workspaceRoot, raw.TsConfig)
	outputPath := resolvePath(workspaceRoot, raw.OutputPath)

	optimization := normalizeOptimization(raw.Optimization)
	sourcemaps := normalizeSourceMaps(raw.SourceMap)

	var assets []AssetPattern
	if len(raw.Assets) > 0 {
		assets, err = normalizeAssetPatterns(n.bc.Fs, raw.Assets, workspaceRoot, projectSourceRoot, outputPath)
		if err != nil {
			return nil, err
		}
	}

	outputNames := NewOutputNames(raw.OutputHashing, raw.ResourcesOutputPath)

	var fileReplacements map[string]string
	if len(raw.FileReplacements) > 0 {
		fileReplacements = make(map[string]string, len(raw.FileReplacements))
		for _, r := range raw.FileReplacements {
			fileReplacements[resolvePath(workspaceRoot, r.Replace)] = resolvePath(workspaceRoot, r.With)
		}
	}

	var globalStyles []GlobalStyle
	if len(raw.Styles) > 0 {
		groups := normalizeGlobalStyles(raw.Styles)
		for _, g := range groups.EntryPoints {
			files := make([]string, 0, len(g.Files))
			for _, f := range g.Files {
				files = append(files, resolvePath(workspaceRoot, f))
			}
			globalStyles = append(globalStyles, GlobalStyle{
				Name:    g.Name,
				Files:   files,
				Initial: !groups.isNoInject(g.Name),
			})
		}
	}

	tailwind, err := n.tailwindConfiguration(workspaceRoot, projectRoot)
	if err != nil {
		return nil, err
	}

	var serviceWorkerConfig string
	if raw.ServiceWorker {
		if raw.ServiceWorkerConfig != "" {
			serviceWorkerConfig = resolvePath(workspaceRoot, raw.ServiceWorkerConfig)
		} else {
			serviceWorkerConfig = filepath.Join(projectRoot, DefaultServiceWorkerConfig)
		}
	}

	entryPoints := map[string]string{"main": mainEntryPoint}
	if len(polyfills) > 0 {
		entryPoints["polyfills"] = polyfills[0]
	}

	var indexHTML *IndexHTML
	if raw.Index != nil {
		insertionOrder, err := GenerateEntryPoints(raw.Scripts, raw.Styles)
		if err != nil {
			return nil, err
		}
		indexHTML = &IndexHTML{
			Input:          resolvePath(workspaceRoot, IndexInputFile(*raw.Index)),
			Output:         resolvePath(outputPath, IndexOutputFile(*raw.Index)),
			InsertionOrder: insertionOrder,
		}
	}

	inlineStyleLanguage := raw.InlineStyleLanguage
	if inlineStyleLanguage == "" {
		inlineStyleLanguage = options.InlineStyleCSS
	}

	return &Options{
		WorkspaceRoot:     workspaceRoot,
		ProjectRoot:       projectRoot,
		ProjectSourceRoot: projectSourceRoot,
		TsConfig:          tsconfig,
		OutputPath:        outputPath,

		EntryPoints:      entryPoints,
		Polyfills:        polyfills,
		OutputNames:      outputNames,
		FileReplacements: fileReplacements,
		GlobalStyles:     globalStyles,
		Assets:           assets,

		CacheOptions:        cacheOptions,
		OptimizationOptions: optimization,
		SourcemapOptions:    sourcemaps,
		ServiceWorkerConfig: serviceWorkerConfig,
		IndexHTMLOptions:    indexHTML,
		Tailwind:            tailwind,

		AdvancedOptimizations:       raw.BuildOptimizer,
		AllowedCommonJsDependencies: raw.AllowedCommonJsDependencies,
		BaseHref:                    raw.BaseHref,
		CrossOrigin:                 raw.CrossOrigin,
		ExternalDependencies:        raw.ExternalDependencies,
		ExtractLicenses:             raw.ExtractLicenses,
		InlineStyleLanguage:         inlineStyleLanguage,
		JIT:                         !raw.AOT,
		Poll:                        raw.Poll,
		PreserveSymlinks:            PreserveSymlinks(raw.PreserveSymlinks, n.bc.Env),
		Stats:                       raw.StatsJSON,
		StylePreprocessorOptions:    raw.StylePreprocessorOptions,
		SubresourceIntegrity:        raw.SubresourceIntegrity,
		Verbose:                     raw.Verbose,
		Watch:                       raw.Watch,
	}, nil
}

func (n *Normalizer) tailwindConfiguration(workspaceRoot, projectRoot string) (*TailwindInfo, error) {
	file, ok := n.tailwind.Find(workspaceRoot, projectRoot)
	if !ok {
		return nil, nil
	}

	pkg, err := n.bc.Resolver.Resolve(tailwindPackage, projectRoot)
	if err != nil {
		if !errors.Is(err, resolve.ErrModuleNotFound) {
			return nil, fmt.Errorf("failed to resolve %s: %w", tailwindPackage, err)
		}
		relative, relErr := filepath.Rel(workspaceRoot, file)
		if relErr != nil {
			relative = file
		}
		n.bc.Logger.Warn(fmt.Sprintf("Tailwind CSS configuration file found (%s) but the '%s' package is not installed. "+
			"To enable Tailwind CSS, please install the '%s' package.", relative, tailwindPackage, tailwindPackage))
		return nil, nil
	}

	return &TailwindInfo{File: file, Package: pkg}, nil
}
