package environ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envFrom(values map[string]string) processEnv {
	return processEnv{lookup: func(key string) string { return values[key] }}
}

func TestProcessEnv_PreserveSymlinks(t *testing.T) {
	t.Run("Should be false by default", func(t *testing.T) {
		assert.False(t, envFrom(nil).PreserveSymlinks())
	})
	t.Run("Should honour NODE_PRESERVE_SYMLINKS", func(t *testing.T) {
		assert.True(t, envFrom(map[string]string{"NODE_PRESERVE_SYMLINKS": "1"}).PreserveSymlinks())
	})
	t.Run("Should find the flag inside NODE_OPTIONS", func(t *testing.T) {
		env := envFrom(map[string]string{"NODE_OPTIONS": "--max-old-space-size=4096 --preserve-symlinks"})
		assert.True(t, env.PreserveSymlinks())
	})
	t.Run("Should not match a flag prefix", func(t *testing.T) {
		env := envFrom(map[string]string{"NODE_OPTIONS": "--preserve-symlinks-main"})
		assert.False(t, env.PreserveSymlinks())
	})
}

func TestProcessEnv_IsCI(t *testing.T) {
	for value, expected := range map[string]bool{"": false, "1": true, "true": true, "TRUE": true, "0": false, "false": false} {
		assert.Equal(t, expected, envFrom(map[string]string{"CI": value}).IsCI(), "CI=%q", value)
	}
}
