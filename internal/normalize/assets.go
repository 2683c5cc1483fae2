package normalize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/options"
)

var (
	ErrMissingAssetSourceRoot = errors.New("asset path must start with the project source root")
	ErrAssetOutsideOutput     = errors.New("an asset cannot be written to a location outside of the output path")
	ErrInvalidAssetGlob       = errors.New("invalid asset glob")
)

// AssetPattern selects files under Input and copies them to Output
type AssetPattern struct {
	Glob           string   `yaml:"glob"`
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Ignore         []string `yaml:"ignore,omitempty"`
	FollowSymlinks bool     `yaml:"followSymlinks,omitempty"`
}

func normalizeAssetPatterns(fs afero.Fs, patterns []options.AssetPattern, workspaceRoot, projectSourceRoot, outputPath string) ([]AssetPattern, error) {
	resolvedSourceRoot := resolvePath(workspaceRoot, projectSourceRoot)

	out := make([]AssetPattern, 0, len(patterns))
	for _, pattern := range patterns {
		var asset AssetPattern

		if pattern.Detail == nil {
			assetPath := filepath.Clean(pattern.String)
			resolvedAssetPath := resolvePath(workspaceRoot, assetPath)
			if !within(resolvedSourceRoot, resolvedAssetPath) {
				return nil, fmt.Errorf("%w: %s", ErrMissingAssetSourceRoot, pattern.String)
			}

			// Anything that cannot be stat'ed is treated as a directory.
			isDirectory := true
			if info, err := fs.Stat(resolvedAssetPath); err == nil {
				isDirectory = info.IsDir()
			}

			var input string
			if isDirectory {
				asset.Glob = "**/*"
				input = assetPath
			} else {
				asset.Glob = filepath.Base(assetPath)
				input = filepath.Dir(assetPath)
			}
			output, err := filepath.Rel(resolvedSourceRoot, resolvePath(workspaceRoot, input))
			if err != nil {
				return nil, fmt.Errorf("failed to resolve asset output for %s: %w", pattern.String, err)
			}
			asset.Input = input
			asset.Output = output
		} else {
			d := pattern.Detail
			asset = AssetPattern{
				Glob:           d.Glob,
				Input:          d.Input,
				Output:         filepath.Join(".", d.Output),
				Ignore:         d.Ignore,
				FollowSymlinks: d.FollowSymlinks,
			}
		}

		if escapes(asset.Output) {
			return nil, fmt.Errorf("%w: %s", ErrAssetOutsideOutput, asset.Output)
		}
		for _, glob := range append([]string{asset.Glob}, asset.Ignore...) {
			if !doublestar.ValidatePattern(glob) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidAssetGlob, glob)
			}
		}

		asset.Input = resolvePath(workspaceRoot, asset.Input)
		asset.Output = filepath.Join(outputPath, asset.Output)
		out = append(out, asset)
	}
	return out, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}
