// Package environ answers questions about the environment the build runs in.
package environ

import (
	"os"
	"strings"
)

// Environment is queried for defaults that are not part of the build options
type Environment interface {
	// PreserveSymlinks reports whether the process was asked to keep symlinked paths
	PreserveSymlinks() bool
	// IsCI reports whether the build runs on a continuous integration host
	IsCI() bool
}

// Process reads the environment of the running process
func Process() Environment {
	return processEnv{lookup: os.Getenv}
}

type processEnv struct {
	lookup func(string) string
}

func (p processEnv) PreserveSymlinks() bool {
	if p.lookup("NODE_PRESERVE_SYMLINKS") == "1" {
		return true
	}
	for _, flag := range strings.Fields(p.lookup("NODE_OPTIONS")) {
		if flag == "--preserve-symlinks" {
			return true
		}
	}
	return false
}

func (p processEnv) IsCI() bool {
	ci := strings.ToLower(p.lookup("CI"))
	return ci == "1" || ci == "true"
}

// Static is a fixed Environment, mostly for tests
type Static struct {
	Symlinks bool
	CI       bool
}

func (s Static) PreserveSymlinks() bool { return s.Symlinks }
func (s Static) IsCI() bool             { return s.CI }
