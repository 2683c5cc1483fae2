package normalize

import (
	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/options"
)

// normalizePolyfills keeps the order of the input. Entries that exist on disk
// become absolute paths; anything else is left for module resolution.
func normalizePolyfills(fs afero.Fs, polyfills options.StringList, workspaceRoot string) []string {
	if len(polyfills) == 0 {
		return nil
	}
	out := make([]string, 0, len(polyfills))
	for _, p := range polyfills {
		resolved := resolvePath(workspaceRoot, p)
		if ok, err := afero.Exists(fs, resolved); err == nil && ok {
			out = append(out, resolved)
		} else {
			out = append(out, p)
		}
	}
	return out
}
