package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/barisgit/fluxbuild/internal/normalize"
)

const (
	stylesNamespace = "flux-styles"
	stylesPrefix    = stylesNamespace + ":"
)

// globalStylesPlugin serves each style group as a virtual stylesheet importing
// its files in order.
func globalStylesPlugin(styles []normalize.GlobalStyle, resolveDir string) api.Plugin {
	groups := make(map[string][]string, len(styles))
	for _, s := range styles {
		groups[s.Name] = s.Files
	}

	return api.Plugin{
		Name: "flux-global-styles",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(stylesPrefix)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, stylesPrefix),
						Namespace: stylesNamespace,
					}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: stylesNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					files, ok := groups[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown global style bundle %q", args.Path)
					}
					contents := stylesheetFor(files)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: resolveDir,
						Loader:     api.LoaderCSS,
					}, nil
				})
		},
	}
}

func stylesheetFor(files []string) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "@import %s;\n", strconv.Quote(filepath.ToSlash(f)))
	}
	return b.String()
}

// fileReplacementPlugin loads the replacement in place of each replaced file.
// Only the replaced paths reach the callback.
func fileReplacementPlugin(replacements map[string]string) api.Plugin {
	paths := make([]string, 0, len(replacements))
	for from := range replacements {
		paths = append(paths, regexp.QuoteMeta(from))
	}
	slices.Sort(paths)
	filter := "^(" + strings.Join(paths, "|") + ")$"

	return api.Plugin{
		Name: "flux-file-replacements",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					with, ok := replacements[args.Path]
					if !ok {
						return api.OnLoadResult{}, nil
					}
					data, err := os.ReadFile(with)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("failed to read replacement %s: %w", with, err)
					}
					contents := string(data)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: filepath.Dir(with),
						Loader:     loaderFor(with),
					}, nil
				})
		},
	}
}
