// Package options defines the user facing build options read from flux.yaml.
package options

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type OutputHashing string

const (
	OutputHashingNone    OutputHashing = "none"
	OutputHashingAll     OutputHashing = "all"
	OutputHashingMedia   OutputHashing = "media"
	OutputHashingBundles OutputHashing = "bundles"
)

type CrossOrigin string

const (
	CrossOriginNone           CrossOrigin = "none"
	CrossOriginAnonymous      CrossOrigin = "anonymous"
	CrossOriginUseCredentials CrossOrigin = "use-credentials"
)

type InlineStyleLanguage string

const (
	InlineStyleCSS  InlineStyleLanguage = "css"
	InlineStyleLess InlineStyleLanguage = "less"
	InlineStyleSass InlineStyleLanguage = "sass"
	InlineStyleSCSS InlineStyleLanguage = "scss"
)

type OptimizationDetails struct {
	Scripts bool                        `yaml:"scripts"`
	Styles  *BoolOr[StylesOptimization] `yaml:"styles,omitempty"`
	Fonts   *BoolOr[FontsOptimization]  `yaml:"fonts,omitempty"`
}

type StylesOptimization struct {
	Minify                bool `yaml:"minify"`
	InlineCritical        bool `yaml:"inlineCritical"`
	RemoveSpecialComments bool `yaml:"removeSpecialComments"`
}

type FontsOptimization struct {
	Inline bool `yaml:"inline"`
}

type SourceMapDetails struct {
	Scripts bool `yaml:"scripts"`
	Styles  bool `yaml:"styles"`
	Hidden  bool `yaml:"hidden"`
	Vendor  bool `yaml:"vendor"`
}

type AssetPatternDetails struct {
	Glob           string   `yaml:"glob" validate:"required"`
	Input          string   `yaml:"input" validate:"required"`
	Output         string   `yaml:"output"`
	Ignore         []string `yaml:"ignore,omitempty"`
	FollowSymlinks bool     `yaml:"followSymlinks,omitempty"`
}

// AssetPattern is a path under the source root or a glob/input/output triple
type AssetPattern = StringOr[AssetPatternDetails]

type EntryPointDetails struct {
	Input      string `yaml:"input" validate:"required"`
	BundleName string `yaml:"bundleName,omitempty"`
	Inject     *bool  `yaml:"inject,omitempty"`
}

// EntryPoint is a global style or script, either a bare path or a detailed entry
type EntryPoint = StringOr[EntryPointDetails]

type IndexDetails struct {
	Input  string `yaml:"input" validate:"required"`
	Output string `yaml:"output,omitempty"`
}

// Index is either the index file path or an input/output pair
type Index = StringOr[IndexDetails]

type FileReplacement struct {
	Replace string `yaml:"replace" validate:"required"`
	With    string `yaml:"with" validate:"required"`
}

type StylePreprocessorOptions struct {
	IncludePaths []string `yaml:"includePaths,omitempty"`
}

// BuildOptions are the raw options of one build target. Unknown keys are ignored.
type BuildOptions struct {
	Main                string                       `yaml:"main" validate:"required"`
	Polyfills           StringList                   `yaml:"polyfills,omitempty"`
	TsConfig            string                       `yaml:"tsConfig" validate:"required"`
	OutputPath          string                       `yaml:"outputPath" validate:"required"`
	ResourcesOutputPath string                       `yaml:"resourcesOutputPath,omitempty"`
	Optimization        *BoolOr[OptimizationDetails] `yaml:"optimization,omitempty"`
	SourceMap           *BoolOr[SourceMapDetails]    `yaml:"sourceMap,omitempty"`
	Assets              []AssetPattern               `yaml:"assets,omitempty" validate:"dive"`
	OutputHashing       OutputHashing                `yaml:"outputHashing,omitempty" validate:"omitempty,oneof=none all media bundles"`
	FileReplacements    []FileReplacement            `yaml:"fileReplacements,omitempty" validate:"dive"`
	Styles              []EntryPoint                 `yaml:"styles,omitempty" validate:"dive"`
	Scripts             []EntryPoint                 `yaml:"scripts,omitempty" validate:"dive"`
	ServiceWorker       bool                         `yaml:"serviceWorker,omitempty"`
	ServiceWorkerConfig string                       `yaml:"serviceWorkerConfigPath,omitempty"`
	Index               *Index                       `yaml:"index,omitempty"`

	AOT                         bool                      `yaml:"aot,omitempty"`
	BaseHref                    string                    `yaml:"baseHref,omitempty"`
	BuildOptimizer              bool                      `yaml:"buildOptimizer,omitempty"`
	CrossOrigin                 CrossOrigin               `yaml:"crossOrigin,omitempty" validate:"omitempty,oneof=none anonymous use-credentials"`
	ExternalDependencies        []string                  `yaml:"externalDependencies,omitempty"`
	ExtractLicenses             bool                      `yaml:"extractLicenses,omitempty"`
	InlineStyleLanguage         InlineStyleLanguage       `yaml:"inlineStyleLanguage,omitempty" validate:"omitempty,oneof=css less sass scss"`
	AllowedCommonJsDependencies []string                  `yaml:"allowedCommonJsDependencies,omitempty"`
	Poll                        int                       `yaml:"poll,omitempty" validate:"gte=0"`
	PreserveSymlinks            *bool                     `yaml:"preserveSymlinks,omitempty"`
	StatsJSON                   bool                      `yaml:"statsJson,omitempty"`
	StylePreprocessorOptions    *StylePreprocessorOptions `yaml:"stylePreprocessorOptions,omitempty"`
	SubresourceIntegrity        bool                      `yaml:"subresourceIntegrity,omitempty"`
	Verbose                     bool                      `yaml:"verbose,omitempty"`
	Watch                       bool                      `yaml:"watch,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and enum values
func (o *BuildOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid build options: %w", err)
	}
	return nil
}

// Decode parses build options from YAML
func Decode(data []byte) (*BuildOptions, error) {
	var opts BuildOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to parse build options: %w", err)
	}
	return &opts, nil
}
