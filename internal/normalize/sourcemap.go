package normalize

import "github.com/barisgit/fluxbuild/internal/options"

type SourceMaps struct {
	Scripts bool `yaml:"scripts"`
	Styles  bool `yaml:"styles"`
	Hidden  bool `yaml:"hidden"`
	Vendor  bool `yaml:"vendor"`
}

func normalizeSourceMaps(raw *options.BoolOr[options.SourceMapDetails]) SourceMaps {
	if raw == nil {
		return SourceMaps{}
	}
	if d := raw.Detail; d != nil {
		return SourceMaps{Scripts: d.Scripts, Styles: d.Styles, Hidden: d.Hidden, Vendor: d.Vendor}
	}
	return SourceMaps{Scripts: raw.Bool, Styles: raw.Bool}
}
