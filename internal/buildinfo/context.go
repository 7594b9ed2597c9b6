// Package buildinfo contains build-time metadata kept separate from user configuration
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Values injected with -ldflags "-X github.com/danbi-garden/danbi/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
)

const unknown = "unknown"

// Context contains build-time metadata that is not user-configurable
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

var (
	once    sync.Once
	current Context
)

// Current returns the metadata of the running binary. Without injected
// values the module version and VCS time recorded by the Go toolchain are
// used.
func Current() Context {
	once.Do(func() {
		current = Context{Version: version, BuildDate: buildDate}
		if info, ok := debug.ReadBuildInfo(); ok {
			current = fromBuildInfo(current, info)
		}
	})
	return current
}

func fromBuildInfo(c Context, info *debug.BuildInfo) Context {
	if c.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		c.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.time":
			if c.BuildDate == "" {
				c.BuildDate = s.Value
			}
		case "vcs.revision":
			if c.Version == "" && len(s.Value) >= 7 {
				c.Version = "dev-" + s.Value[:7]
			}
		}
	}
	return c
}

// GetVersion returns the build version string
func (c Context) GetVersion() string {
	if c.Version == "" {
		return unknown
	}
	return c.Version
}

// GetBuildDate returns the build date string
func (c Context) GetBuildDate() string {
	if c.BuildDate == "" {
		return unknown
	}
	return c.BuildDate
}
