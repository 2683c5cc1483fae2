package normalize

import (
	"path/filepath"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/environ"
)

// ProjectRootOf is the project root relative to the workspace, "" when unset
func ProjectRootOf(meta *config.ProjectMetadata) string {
	if meta == nil || meta.Root == nil {
		return ""
	}
	return *meta.Root
}

// SourceRootOf is the source root relative to the workspace, "src" when unset.
// An explicit empty value is kept.
func SourceRootOf(meta *config.ProjectMetadata) string {
	if meta == nil || meta.SourceRoot == nil {
		return "src"
	}
	return *meta.SourceRoot
}

// PreserveSymlinks prefers the explicit option over the environment
func PreserveSymlinks(explicit *bool, env environ.Environment) bool {
	if explicit != nil {
		return *explicit
	}
	return env.PreserveSymlinks()
}

// resolvePath joins p onto base unless p is already absolute
func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
