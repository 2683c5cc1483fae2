package normalize

import "github.com/barisgit/fluxbuild/internal/options"

type Optimization struct {
	Scripts bool              `yaml:"scripts"`
	Styles  StyleOptimization `yaml:"styles"`
	Fonts   FontOptimization  `yaml:"fonts"`
}

type StyleOptimization struct {
	Minify                bool `yaml:"minify"`
	InlineCritical        bool `yaml:"inlineCritical"`
	RemoveSpecialComments bool `yaml:"removeSpecialComments"`
}

type FontOptimization struct {
	Inline bool `yaml:"inline"`
}

// normalizeOptimization expands the optimization switch; unset means fully on
func normalizeOptimization(raw *options.BoolOr[options.OptimizationDetails]) Optimization {
	if raw == nil {
		return allOptimizations(true)
	}
	if raw.Detail == nil {
		return allOptimizations(raw.Bool)
	}

	detail := raw.Detail
	out := Optimization{Scripts: detail.Scripts}
	if detail.Styles != nil {
		if s := detail.Styles.Detail; s != nil {
			out.Styles = StyleOptimization{
				Minify:                s.Minify,
				InlineCritical:        s.InlineCritical,
				RemoveSpecialComments: s.RemoveSpecialComments,
			}
		} else {
			out.Styles = styleOptimization(detail.Styles.Bool)
		}
	}
	if detail.Fonts != nil {
		if f := detail.Fonts.Detail; f != nil {
			out.Fonts = FontOptimization{Inline: f.Inline}
		} else {
			out.Fonts = FontOptimization{Inline: detail.Fonts.Bool}
		}
	}
	return out
}

func allOptimizations(on bool) Optimization {
	return Optimization{
		Scripts: on,
		Styles:  styleOptimization(on),
		Fonts:   FontOptimization{Inline: on},
	}
}

func styleOptimization(on bool) StyleOptimization {
	return StyleOptimization{Minify: on, InlineCritical: on, RemoveSpecialComments: on}
}
