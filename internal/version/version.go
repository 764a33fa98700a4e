package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// unset marks metadata that was not injected at build time.
const unset = "unknown"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time.
	Commit = unset
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = unset
)

// Info is the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	Modified  bool
}

//nolint:gochecknoglobals // Resolved once per process.
var resolve = sync.OnceValue(func() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	return fromBuildSettings(info, build.Settings)
})

// fromBuildSettings fills unset fields from the vcs.* build settings.
func fromBuildSettings(info Info, settings []debug.BuildSetting) Info {
	const shortCommit = 7

	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == unset && setting.Value != "" {
				info.Commit = setting.Value[:min(shortCommit, len(setting.Value))]
			}
		case "vcs.time":
			if info.BuildTime == unset && setting.Value != "" {
				info.BuildTime = setting.Value
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}

	return info
}

// Get returns the build metadata.
func Get() Info {
	return resolve()
}

// Short returns only the semantic version string.
func Short() string {
	return Get().Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	info := Get()

	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}

	return fmt.Sprintf("proximity-alarm %s (commit %s, built %s, %s)", info.Version, commit, info.BuildTime, info.GoVersion)
}

// KV returns the metadata as logger key-value pairs.
func KV() []any {
	info := Get()

	return []any{"version", info.Version, "commit", info.Commit, "build_time", info.BuildTime}
}
