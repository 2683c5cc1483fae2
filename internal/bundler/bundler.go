package bundler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/barisgit/fluxbuild/internal/logger"
	"github.com/barisgit/fluxbuild/internal/normalize"
)

// StatsFile is written next to the bundles when stats are requested
const StatsFile = "stats.json"

var ErrBuildFailed = errors.New("esbuild failed with errors")

// Bundler runs one esbuild pass per Build call
type Bundler struct {
	fs    afero.Fs
	log   logger.Logger
	build func(api.BuildOptions) api.BuildResult
}

// Result describes what a build wrote
type Result struct {
	// Files are the absolute paths of the emitted bundles
	Files []string
	// Bundles maps a bundle name to its output files, relative to the output path
	Bundles map[string][]string
	// Assets counts the copied asset files
	Assets int
}

func New(fs afero.Fs, log logger.Logger) *Bundler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Bundler{fs: fs, log: log, build: api.Build}
}

// Build bundles n, then copies assets and renders the index file
func (b *Bundler) Build(ctx context.Context, n *normalize.Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.log.Info("Building bundles", "entrypoints", len(n.EntryPoints)+len(n.GlobalStyles), "output", n.OutputPath)
	result := b.build(Options(n))

	for _, msg := range result.Warnings {
		b.log.Warn(msg.Text, location(msg)...)
	}
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			b.log.Error(msg.Text, location(msg)...)
		}
		return nil, fmt.Errorf("%w: %d errors", ErrBuildFailed, len(result.Errors))
	}

	contents := make(map[string][]byte, len(result.OutputFiles))
	files := make([]string, 0, len(result.OutputFiles))
	for _, file := range result.OutputFiles {
		if err := b.write(file.Path, file.Contents); err != nil {
			return nil, err
		}
		contents[file.Path] = file.Contents
		files = append(files, file.Path)
		b.log.Debug("Built file", "file", file.Path)
	}

	if n.Stats {
		if err := b.write(filepath.Join(n.OutputPath, StatsFile), []byte(result.Metafile)); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	copied, err := b.copyAssets(n.Assets)
	if err != nil {
		return nil, err
	}

	bundles := entryOutputs(result.Metafile, n)
	if n.IndexHTMLOptions != nil {
		if err := b.renderIndex(n, bundles, contents); err != nil {
			return nil, err
		}
	}

	return &Result{Files: files, Bundles: bundles, Assets: copied}, nil
}

func (b *Bundler) write(path string, data []byte) error {
	if err := b.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(b.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func location(msg api.Message) []any {
	if msg.Location == nil {
		return nil
	}
	return []any{"file", msg.Location.File, "line", msg.Location.Line, "column", msg.Location.Column}
}

// entryOutputs groups the entry point outputs listed in the metafile by bundle
// name. Source maps and media are left out.
func entryOutputs(metafile string, n *normalize.Options) map[string][]string {
	hashed := strings.Contains(n.OutputNames.Bundles, "[hash]")
	bundles := map[string][]string{}

	gjson.Get(metafile, "outputs").ForEach(func(key, value gjson.Result) bool {
		if value.Get("entryPoint").String() == "" || strings.HasSuffix(key.String(), ".map") {
			return true
		}
		abs := filepath.Join(n.WorkspaceRoot, filepath.FromSlash(key.String()))
		rel, err := filepath.Rel(n.OutputPath, abs)
		if err != nil {
			return true
		}
		rel = filepath.ToSlash(rel)
		name := bundleName(rel, hashed)
		bundles[name] = append(bundles[name], rel)
		return true
	})
	return bundles
}

func bundleName(file string, hashed bool) string {
	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if hashed {
		if i := strings.LastIndex(stem, "."); i > 0 {
			stem = stem[:i]
		}
	}
	return stem
}
