package normalize

import (
	"path/filepath"

	"github.com/barisgit/fluxbuild/internal/options"
)

const defaultIndexOutput = "index.html"

// IndexHTML describes the index file to generate
type IndexHTML struct {
	Input          string           `yaml:"input"`
	Output         string           `yaml:"output"`
	InsertionOrder []InsertionEntry `yaml:"insertionOrder"`
}

// IndexInputFile is the source index file, relative to the workspace
func IndexInputFile(index options.Index) string {
	if index.Detail != nil {
		return index.Detail.Input
	}
	return index.String
}

// IndexOutputFile is the generated index file, relative to the output path
func IndexOutputFile(index options.Index) string {
	if index.Detail != nil {
		if index.Detail.Output != "" {
			return index.Detail.Output
		}
		return defaultIndexOutput
	}
	return filepath.Base(index.String)
}
