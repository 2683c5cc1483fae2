package normalize

import (
	"path"
	"path/filepath"

	"github.com/barisgit/fluxbuild/internal/options"
)

const (
	plainTemplate  = "[name]"
	hashedTemplate = "[name].[hash]"
)

// OutputNames are bundler file name templates
type OutputNames struct {
	Bundles string `yaml:"bundles"`
	Media   string `yaml:"media"`
}

// NewOutputNames derives the templates from the hashing mode alone; the
// resources path only prefixes the media template.
func NewOutputNames(hashing options.OutputHashing, resourcesOutputPath string) OutputNames {
	names := OutputNames{
		Bundles: plainTemplate,
		Media:   plainTemplate,
	}
	if hashing == options.OutputHashingAll || hashing == options.OutputHashingBundles {
		names.Bundles = hashedTemplate
	}
	if hashing == options.OutputHashingAll || hashing == options.OutputHashingMedia {
		names.Media = hashedTemplate
	}
	if resourcesOutputPath != "" {
		names.Media = path.Join(filepath.ToSlash(resourcesOutputPath), names.Media)
	}
	return names
}
