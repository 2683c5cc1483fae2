// Package bundler hands a normalized configuration to esbuild and writes the
// resulting bundles, assets and index file.
package bundler

import (
	"path/filepath"
	"slices"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/barisgit/fluxbuild/internal/normalize"
)

// mediaLoaders route referenced media through AssetNames
var mediaLoaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".avif":  api.LoaderFile,
	".svg":   api.LoaderFile,
	".ico":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
}

// Options maps the normalized configuration onto esbuild build options.
// Output is kept in memory; Build writes it.
func Options(n *normalize.Options) api.BuildOptions {
	minifyScripts := n.OptimizationOptions.Scripts
	minifyStyles := n.OptimizationOptions.Styles.Minify

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints(n),
		AbsWorkingDir:       n.WorkspaceRoot,
		Outdir:              n.OutputPath,
		EntryNames:          n.OutputNames.Bundles,
		AssetNames:          n.OutputNames.Media,
		Tsconfig:            n.TsConfig,
		Bundle:              true,
		Write:               false,
		Metafile:            true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              api.ES2020,
		Charset:             api.CharsetUTF8,
		TreeShaking:         api.TreeShakingTrue,
		MinifyWhitespace:    minifyScripts || minifyStyles,
		MinifyIdentifiers:   minifyScripts,
		MinifySyntax:        minifyScripts,
		Sourcemap:           sourcemap(n.SourcemapOptions),
		LegalComments:       legalComments(n),
		PreserveSymlinks:    n.PreserveSymlinks,
		External:            slices.Clone(n.ExternalDependencies),
		Loader:              mediaLoaders,
		LogLevel:            api.LogLevelSilent,
		Plugins:             plugins(n),
	}
	if n.Verbose {
		opts.LogLevel = api.LogLevelVerbose
	}
	return opts
}

func entryPoints(n *normalize.Options) []api.EntryPoint {
	// main first, then polyfills, then the style bundles in group order
	var out []api.EntryPoint
	for _, name := range []string{"main", "polyfills"} {
		if input, ok := n.EntryPoints[name]; ok {
			out = append(out, api.EntryPoint{InputPath: input, OutputPath: name})
		}
	}
	for _, style := range n.GlobalStyles {
		out = append(out, api.EntryPoint{InputPath: stylesPrefix + style.Name, OutputPath: style.Name})
	}
	return out
}

func sourcemap(s normalize.SourceMaps) api.SourceMap {
	switch {
	case !s.Scripts && !s.Styles:
		return api.SourceMapNone
	case s.Hidden:
		return api.SourceMapExternal
	default:
		return api.SourceMapLinked
	}
}

func legalComments(n *normalize.Options) api.LegalComments {
	switch {
	case n.ExtractLicenses:
		return api.LegalCommentsExternal
	case n.OptimizationOptions.Styles.RemoveSpecialComments:
		return api.LegalCommentsNone
	default:
		return api.LegalCommentsDefault
	}
}

func plugins(n *normalize.Options) []api.Plugin {
	var out []api.Plugin
	if len(n.GlobalStyles) > 0 {
		out = append(out, globalStylesPlugin(n.GlobalStyles, n.WorkspaceRoot))
	}
	if len(n.FileReplacements) > 0 {
		out = append(out, fileReplacementPlugin(n.FileReplacements))
	}
	return out
}

func loaderFor(path string) api.Loader {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".css":
		return api.LoaderCSS
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJS
	}
}
