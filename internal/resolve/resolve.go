// Package resolve locates installed node packages the way node's require does,
// walking node_modules directories up from a starting directory.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

var ErrModuleNotFound = errors.New("module not found")

type Resolver struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs}
}

// Resolve returns the absolute entry file of pkg as seen from fromDir
func (r *Resolver) Resolve(pkg, fromDir string) (string, error) {
	dir, err := filepath.Abs(fromDir)
	if err != nil {
		return "", err
	}

	for {
		pkgDir := filepath.Join(dir, "node_modules", pkg)
		manifest := filepath.Join(pkgDir, "package.json")

		data, err := afero.ReadFile(r.fs, manifest)
		switch {
		case err == nil:
			return entryFile(pkgDir, data), nil
		case !notFound(err):
			return "", fmt.Errorf("failed to read %s: %w", manifest, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: cannot find '%s' from %s", ErrModuleNotFound, pkg, fromDir)
		}
		dir = parent
	}
}

// notFound also covers a file sitting where a directory of the walk should be
func notFound(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func entryFile(pkgDir string, manifest []byte) string {
	main := gjson.GetBytes(manifest, "main").String()
	if main == "" {
		main = "index.js"
	}
	return filepath.Join(pkgDir, main)
}
