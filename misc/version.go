// Package misc keeps small helpers needed across the program.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "mqsplit"

// GetAppName returns short program name to be used in logs, reports and
// generated file names.
func GetAppName() string {
	return appName
}

var buildInfo = sync.OnceValues(func() (string, string) {
	version, hash := "unknown", "unknown"
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return version, hash
	}
	if len(bi.Main.Version) > 0 {
		version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			hash = s.Value[:12]
		}
	}
	return version, hash
})

// GetVersion returns module version recorded in the binary.
func GetVersion() string {
	v, _ := buildInfo()
	return v
}

// GetGitHash returns short VCS revision recorded in the binary.
func GetGitHash() string {
	_, h := buildInfo()
	return h
}
