package bundler

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/normalize"
)

// copyAssets copies every file matched by the patterns, keeping the path
// relative to the pattern input.
func (b *Bundler) copyAssets(patterns []normalize.AssetPattern) (int, error) {
	copied := 0
	for _, asset := range patterns {
		exists, err := afero.DirExists(b.fs, asset.Input)
		if err != nil {
			return copied, fmt.Errorf("failed to stat asset input %s: %w", asset.Input, err)
		}
		if !exists {
			b.log.Warn("Asset input directory does not exist", "input", asset.Input)
			continue
		}

		opts := []doublestar.GlobOption{doublestar.WithFilesOnly()}
		if !asset.FollowSymlinks {
			opts = append(opts, doublestar.WithNoFollow())
		}
		src := afero.NewIOFS(afero.NewBasePathFs(b.fs, asset.Input))
		matches, err := doublestar.Glob(src, asset.Glob, opts...)
		if err != nil {
			return copied, fmt.Errorf("failed to expand asset glob %q in %s: %w", asset.Glob, asset.Input, err)
		}

		for _, match := range matches {
			if ignored(asset.Ignore, match) {
				continue
			}
			from := filepath.Join(asset.Input, filepath.FromSlash(match))
			to := filepath.Join(asset.Output, filepath.FromSlash(match))
			data, err := afero.ReadFile(b.fs, from)
			if err != nil {
				return copied, fmt.Errorf("failed to read asset %s: %w", from, err)
			}
			if err := b.write(to, data); err != nil {
				return copied, err
			}
			copied++
		}
	}
	if copied > 0 {
		b.log.Debug("Copied assets", "count", copied)
	}
	return copied, nil
}

func ignored(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
