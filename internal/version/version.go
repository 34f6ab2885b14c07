// Package version reports the version of this module as recorded in the build information.
package version

import (
	"runtime/debug"
)

// Default is the version reported when the build information has none, e.g. in tests.
const Default = "dev"

const modulePath = "github.com/qream/qream"

// GetQreamVersion returns the version of this module, whether it is the main module or a dependency.
func GetQreamVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return versionOf(info)
}

func versionOf(info *debug.BuildInfo) string {
	if info.Main.Path == modulePath {
		return versionOrDefault(info.Main.Version)
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			return versionOrDefault(dep.Replace.Version)
		}
		return versionOrDefault(dep.Version)
	}
	return Default
}

func versionOrDefault(v string) string {
	// "(devel)" is reported for builds from a working tree.
	if v == "" || v == "(devel)" {
		return Default
	}
	return v
}
