package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barisgit/fluxbuild/internal/normalize"
	"github.com/barisgit/fluxbuild/internal/options"
)

var root = filepath.FromSlash("/ws")

func abs(rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

func baseNormalized() *normalize.Options {
	return &normalize.Options{
		WorkspaceRoot: root,
		ProjectRoot:   root,
		TsConfig:      abs("tsconfig.json"),
		OutputPath:    abs("dist"),
		EntryPoints:   map[string]string{"main": abs("src/main.ts")},
		OutputNames:   normalize.OutputNames{Bundles: "[name]", Media: "[name]"},
	}
}

func TestOptions(t *testing.T) {
	t.Run("Should map entry points and name templates", func(t *testing.T) {
		n := baseNormalized()
		n.EntryPoints["polyfills"] = "zone.js"
		n.GlobalStyles = []normalize.GlobalStyle{{Name: "styles", Files: []string{abs("src/styles.css")}, Initial: true}}
		n.OutputNames = normalize.OutputNames{Bundles: "[name].[hash]", Media: "media/[name]"}
		opts := Options(n)

		assert.Equal(t, []api.EntryPoint{
			{InputPath: abs("src/main.ts"), OutputPath: "main"},
			{InputPath: "zone.js", OutputPath: "polyfills"},
			{InputPath: "flux-styles:styles", OutputPath: "styles"},
		}, opts.EntryPointsAdvanced)
		assert.Equal(t, "[name].[hash]", opts.EntryNames)
		assert.Equal(t, "media/[name]", opts.AssetNames)
		assert.Equal(t, abs("dist"), opts.Outdir)
		assert.Equal(t, abs("tsconfig.json"), opts.Tsconfig)
		assert.False(t, opts.Write)
		assert.True(t, opts.Metafile)
		assert.Len(t, opts.Plugins, 1)
	})
	t.Run("Should derive minification from optimization", func(t *testing.T) {
		n := baseNormalized()
		opts := Options(n)
		assert.False(t, opts.MinifyWhitespace)
		assert.False(t, opts.MinifySyntax)

		n.OptimizationOptions.Scripts = true
		opts = Options(n)
		assert.True(t, opts.MinifyWhitespace)
		assert.True(t, opts.MinifyIdentifiers)
		assert.True(t, opts.MinifySyntax)
	})
	t.Run("Should pick the source map mode", func(t *testing.T) {
		assert.Equal(t, api.SourceMapNone, sourcemap(normalize.SourceMaps{}))
		assert.Equal(t, api.SourceMapLinked, sourcemap(normalize.SourceMaps{Scripts: true}))
		assert.Equal(t, api.SourceMapExternal, sourcemap(normalize.SourceMaps{Styles: true, Hidden: true}))
	})
	t.Run("Should pass symlinks and externals through", func(t *testing.T) {
		n := baseNormalized()
		n.PreserveSymlinks = true
		n.ExternalDependencies = []string{"@angular/core"}
		n.FileReplacements = map[string]string{abs("a.ts"): abs("b.ts")}
		opts := Options(n)

		assert.True(t, opts.PreserveSymlinks)
		assert.Equal(t, []string{"@angular/core"}, opts.External)
		require.Len(t, opts.Plugins, 1)
		assert.Equal(t, "flux-file-replacements", opts.Plugins[0].Name)
	})
}

func TestStylesheetFor(t *testing.T) {
	out := stylesheetFor([]string{"/ws/a.css", "/ws/b.css"})
	assert.Equal(t, "@import \"/ws/a.css\";\n@import \"/ws/b.css\";\n", out)
}

func TestBundleName(t *testing.T) {
	assert.Equal(t, "main", bundleName("main.js", false))
	assert.Equal(t, "main", bundleName("main.ABC123.js", true))
	assert.Equal(t, "theme.dark", bundleName("theme.dark.css", false))
}

const metafile = `{
  "inputs": {},
  "outputs": {
    "dist/main.js": {"entryPoint": "src/main.ts", "imports": []},
    "dist/main.js.map": {"imports": []},
    "dist/main.css": {"entryPoint": "src/main.ts", "imports": []},
    "dist/polyfills.js": {"entryPoint": "node_modules/zone.js/index.js", "imports": []},
    "dist/styles.css": {"entryPoint": "flux-styles:styles", "imports": []},
    "dist/logo.png": {"imports": []}
  }
}`

func fakeBuild(t *testing.T) func(api.BuildOptions) api.BuildResult {
	return func(opts api.BuildOptions) api.BuildResult {
		t.Helper()
		return api.BuildResult{
			OutputFiles: []api.OutputFile{
				{Path: filepath.Join(opts.Outdir, "main.js"), Contents: []byte("console.log(1)")},
				{Path: filepath.Join(opts.Outdir, "main.css"), Contents: []byte("body{}")},
				{Path: filepath.Join(opts.Outdir, "polyfills.js"), Contents: []byte("/*p*/")},
				{Path: filepath.Join(opts.Outdir, "styles.css"), Contents: []byte("h1{}")},
			},
			Metafile: metafile,
		}
	}
}

func newTestBundler(t *testing.T, fs afero.Fs) *Bundler {
	b := New(fs, nil)
	b.build = fakeBuild(t)
	return b
}

const indexSource = `<!doctype html>
<html>
<head><title>App</title><base href="/"></head>
<body><app-root></app-root></body>
</html>`

func TestBuild(t *testing.T) {
	t.Run("Should write bundles and group outputs by bundle", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		res, err := newTestBundler(t, fs).Build(context.Background(), baseNormalized())
		require.NoError(t, err)

		assert.Len(t, res.Files, 4)
		assert.Equal(t, map[string][]string{
			"main":      {"main.js", "main.css"},
			"polyfills": {"polyfills.js"},
			"styles":    {"styles.css"},
		}, res.Bundles)
		data, err := afero.ReadFile(fs, abs("dist/main.js"))
		require.NoError(t, err)
		assert.Equal(t, "console.log(1)", string(data))

		exists, err := afero.Exists(fs, abs("dist/stats.json"))
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should write the metafile when stats are requested", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		n := baseNormalized()
		n.Stats = true
		_, err := newTestBundler(t, fs).Build(context.Background(), n)
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, abs("dist/stats.json"))
		require.NoError(t, err)
		assert.Equal(t, metafile, string(data))
	})
	t.Run("Should render the index file in insertion order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, abs("src/index.html"), []byte(indexSource), 0644))
		n := baseNormalized()
		n.BaseHref = "/app/"
		n.CrossOrigin = options.CrossOriginAnonymous
		n.IndexHTMLOptions = &normalize.IndexHTML{
			Input:  abs("src/index.html"),
			Output: abs("dist/index.html"),
			InsertionOrder: []normalize.InsertionEntry{
				{Name: "runtime", Module: true},
				{Name: "polyfills", Module: true},
				{Name: "styles"},
				{Name: "vendor", Module: true},
				{Name: "main", Module: true},
			},
		}
		_, err := newTestBundler(t, fs).Build(context.Background(), n)
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, abs("dist/index.html"))
		require.NoError(t, err)
		doc := string(data)
		assert.Contains(t, doc, `<base href="/app/">`)
		assert.NotContains(t, doc, `<base href="/">`)
		assert.Contains(t, doc, `<link rel="stylesheet" href="styles.css" crossorigin="anonymous"><link rel="stylesheet" href="main.css" crossorigin="anonymous"></head>`)
		assert.Contains(t, doc, `<script src="polyfills.js" type="module" crossorigin="anonymous"></script><script src="main.js" type="module" crossorigin="anonymous"></script></body>`)
	})
	t.Run("Should add integrity attributes", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, abs("src/index.html"), []byte(indexSource), 0644))
		n := baseNormalized()
		n.SubresourceIntegrity = true
		n.IndexHTMLOptions = &normalize.IndexHTML{
			Input:          abs("src/index.html"),
			Output:         abs("dist/index.html"),
			InsertionOrder: []normalize.InsertionEntry{{Name: "main", Module: true}},
		}
		_, err := newTestBundler(t, fs).Build(context.Background(), n)
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, abs("dist/index.html"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `integrity="`+integrity([]byte("console.log(1)"))+`"`)
		assert.True(t, strings.HasPrefix(integrity([]byte("x")), "sha384-"))
	})
	t.Run("Should copy matched assets and skip ignored ones", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, abs("src/assets/logo.svg"), []byte("<svg/>"), 0644))
		require.NoError(t, afero.WriteFile(fs, abs("src/assets/icons/a.svg"), []byte("<svg/>"), 0644))
		require.NoError(t, afero.WriteFile(fs, abs("src/assets/notes.tmp"), []byte("x"), 0644))
		n := baseNormalized()
		n.Assets = []normalize.AssetPattern{{
			Glob:   "**/*",
			Input:  abs("src/assets"),
			Output: abs("dist/assets"),
			Ignore: []string{"**/*.tmp"},
		}}
		res, err := newTestBundler(t, fs).Build(context.Background(), n)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Assets)
		for _, rel := range []string{"dist/assets/logo.svg", "dist/assets/icons/a.svg"} {
			ok, err := afero.Exists(fs, abs(rel))
			require.NoError(t, err)
			assert.True(t, ok, rel)
		}
		ok, err := afero.Exists(fs, abs("dist/assets/notes.tmp"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("Should skip a missing asset input", func(t *testing.T) {
		n := baseNormalized()
		n.Assets = []normalize.AssetPattern{{Glob: "**/*", Input: abs("nowhere"), Output: abs("dist")}}
		res, err := newTestBundler(t, afero.NewMemMapFs()).Build(context.Background(), n)
		require.NoError(t, err)
		assert.Zero(t, res.Assets)
	})
	t.Run("Should fail on bundler errors without writing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		b := New(fs, nil)
		b.build = func(api.BuildOptions) api.BuildResult {
			return api.BuildResult{Errors: []api.Message{{Text: "Could not resolve \"x\""}}}
		}
		_, err := b.Build(context.Background(), baseNormalized())

		assert.True(t, errors.Is(err, ErrBuildFailed))
		ok, _ := afero.DirExists(fs, abs("dist"))
		assert.False(t, ok)
	})
	t.Run("Should stop on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestBundler(t, afero.NewMemMapFs()).Build(ctx, baseNormalized())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuild_Esbuild(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("tsconfig.json", "{}")
	write("src/main.ts", "import { mode } from './environment';\nconsole.log(mode);\n")
	write("src/environment.ts", "export const mode: string = 'development-build';\n")
	write("src/environment.prod.ts", "export const mode: string = 'production-build';\n")
	write("src/styles.css", "body { color: red; }\n")

	n := &normalize.Options{
		WorkspaceRoot:    dir,
		ProjectRoot:      dir,
		TsConfig:         filepath.Join(dir, "tsconfig.json"),
		OutputPath:       filepath.Join(dir, "dist"),
		EntryPoints:      map[string]string{"main": filepath.Join(dir, "src", "main.ts")},
		OutputNames:      normalize.OutputNames{Bundles: "[name]", Media: "[name]"},
		FileReplacements: map[string]string{filepath.Join(dir, "src", "environment.ts"): filepath.Join(dir, "src", "environment.prod.ts")},
		GlobalStyles:     []normalize.GlobalStyle{{Name: "styles", Files: []string{filepath.Join(dir, "src", "styles.css")}, Initial: true}},
	}
	res, err := New(afero.NewOsFs(), nil).Build(context.Background(), n)
	require.NoError(t, err)

	main, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "production-build")
	assert.NotContains(t, string(main), "development-build")

	styles, err := os.ReadFile(filepath.Join(dir, "dist", "styles.css"))
	require.NoError(t, err)
	assert.Contains(t, string(styles), "color: red")
	assert.Contains(t, res.Bundles, "main")
	assert.Contains(t, res.Bundles, "styles")
}
