// Package version reports the build version of the binary.
package version

import "runtime/debug"

// Effective returns v when set by ldflags, otherwise a version derived from
// the Go build info.
func Effective(v string) string {
	if v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}
	ver := "devel+" + revision
	if dirty {
		ver += "+dirty"
	}
	return ver
}
