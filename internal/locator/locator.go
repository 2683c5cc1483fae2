// Package locator finds optional tool configuration files in a workspace.
package locator

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// TailwindConfigFiles are the recognized Tailwind CSS configuration file names, in lookup order
var TailwindConfigFiles = []string{"tailwind.config.js", "tailwind.config.cjs"}

// Locator looks for the first existing file out of a fixed list of names.
// Nothing is cached; every call probes the file system again.
type Locator struct {
	fs    afero.Fs
	names []string
}

func New(fs afero.Fs, names ...string) *Locator {
	return &Locator{fs: fs, names: names}
}

// Tailwind returns a locator for Tailwind CSS configuration files
func Tailwind(fs afero.Fs) *Locator {
	return New(fs, TailwindConfigFiles...)
}

// Find checks the project root before the workspace root and, within each
// directory, the names in declared order. It returns the absolute path of the
// first file that exists.
func (l *Locator) Find(workspaceRoot, projectRoot string) (string, bool) {
	for _, dir := range []string{projectRoot, workspaceRoot} {
		for _, name := range l.names {
			candidate := filepath.Join(dir, name)
			if ok, err := afero.Exists(l.fs, candidate); err == nil && ok {
				return candidate, true
			}
		}
	}
	return "", false
}
