package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/barisgit/fluxbuild/internal/options"
)

var ErrDuplicateBundleName = errors.New("multiple bundles have been named the same")

// InsertionEntry is one bundle in the order it is written into the index file
type InsertionEntry struct {
	Name   string `yaml:"name"`
	Module bool   `yaml:"module"`
}

// GenerateEntryPoints lists the index file bundles in insertion order:
// runtime, polyfills, injected styles, injected scripts, vendor, main.
func GenerateEntryPoints(scripts, styles []options.EntryPoint) ([]InsertionEntry, error) {
	entries := []InsertionEntry{
		{Name: "runtime", Module: true},
		{Name: "polyfills", Module: true},
	}
	entries = append(entries, injectedBundles(styles, "styles")...)
	entries = append(entries, injectedBundles(scripts, "scripts")...)
	entries = append(entries,
		InsertionEntry{Name: "vendor", Module: true},
		InsertionEntry{Name: "main", Module: true},
	)

	seen := map[string]int{}
	var duplicates []string
	for _, e := range entries {
		seen[e.Name]++
		if seen[e.Name] == 2 {
			duplicates = append(duplicates, e.Name)
		}
	}
	if len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateBundleName, strings.Join(duplicates, "', '"))
	}
	return entries, nil
}

func injectedBundles(entries []options.EntryPoint, defaultBundleName string) []InsertionEntry {
	var out []InsertionEntry
	seen := map[string]bool{}
	for _, e := range normalizeExtraEntryPoints(entries, defaultBundleName) {
		if !e.Inject || seen[e.BundleName] {
			continue
		}
		seen[e.BundleName] = true
		out = append(out, InsertionEntry{Name: e.BundleName})
	}
	return out
}
