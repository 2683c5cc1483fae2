package normalize

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/barisgit/fluxbuild/internal/options"
)

// GlobalStyle is one stylesheet bundle. Initial bundles are injected into the index file.
type GlobalStyle struct {
	Name    string   `yaml:"name"`
	Files   []string `yaml:"files"`
	Initial bool     `yaml:"initial"`
}

type extraEntryPoint struct {
	Input      string
	BundleName string
	Inject     bool
}

// normalizeExtraEntryPoints names every entry. Bundles that are not injected
// default to the input file name without extension.
func normalizeExtraEntryPoints(entries []options.EntryPoint, defaultBundleName string) []extraEntryPoint {
	out := make([]extraEntryPoint, 0, len(entries))
	for _, entry := range entries {
		if entry.Detail == nil {
			out = append(out, extraEntryPoint{Input: entry.String, BundleName: defaultBundleName, Inject: true})
			continue
		}

		d := entry.Detail
		inject := d.Inject == nil || *d.Inject
		bundleName := d.BundleName
		switch {
		case bundleName != "":
		case !inject:
			base := filepath.Base(d.Input)
			bundleName = strings.TrimSuffix(base, filepath.Ext(base))
		default:
			bundleName = defaultBundleName
		}
		out = append(out, extraEntryPoint{Input: d.Input, BundleName: bundleName, Inject: inject})
	}
	return out
}

type styleGroup struct {
	Name  string
	Files []string
}

type styleGroups struct {
	EntryPoints   []styleGroup
	NoInjectNames []string
}

func (g styleGroups) isNoInject(name string) bool {
	return slices.Contains(g.NoInjectNames, name)
}

// normalizeGlobalStyles groups style entries by bundle name in order of first
// appearance, dropping repeated files within a bundle.
func normalizeGlobalStyles(entries []options.EntryPoint) styleGroups {
	var groups styleGroups
	index := map[string]int{}

	for _, entry := range normalizeExtraEntryPoints(entries, "styles") {
		i, ok := index[entry.BundleName]
		if !ok {
			i = len(groups.EntryPoints)
			index[entry.BundleName] = i
			groups.EntryPoints = append(groups.EntryPoints, styleGroup{Name: entry.BundleName})
		}
		if !slices.Contains(groups.EntryPoints[i].Files, entry.Input) {
			groups.EntryPoints[i].Files = append(groups.EntryPoints[i].Files, entry.Input)
		}
		if !entry.Inject {
			groups.NoInjectNames = append(groups.NoInjectNames, entry.BundleName)
		}
	}
	return groups
}
