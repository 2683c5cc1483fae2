package normalize

import (
	"path/filepath"

	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/environ"
)

type CacheOptions struct {
	Enabled  bool   `yaml:"enabled"`
	BasePath string `yaml:"basePath"`
	Path     string `yaml:"path"`
}

func normalizeCacheOptions(meta *config.ProjectMetadata, workspaceRoot string, env environ.Environment, version string) CacheOptions {
	defaults := config.DefaultCacheConfig()

	var cache config.CacheConfig
	if meta != nil {
		cache = meta.Cache
	}
	enabled := *defaults.Enabled
	if cache.Enabled != nil {
		enabled = *cache.Enabled
	}
	environment := cache.Environment
	if environment == "" {
		environment = defaults.Environment
	}
	path := cache.Path
	if path == "" {
		path = defaults.Path
	}

	if enabled {
		switch environment {
		case "ci":
			enabled = env.IsCI()
		case "local":
			enabled = !env.IsCI()
		}
	}

	if version == "" {
		version = "dev"
	}
	basePath := resolvePath(workspaceRoot, path)
	return CacheOptions{
		Enabled:  enabled,
		BasePath: basePath,
		Path:     filepath.Join(basePath, version),
	}
}
