// Package version carries build and firmware version information for lovid.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/lovihome/lovid/internal/version.Version=v1.2.3 \
//	                   -X github.com/lovihome/lovid/internal/version.Commit=abc123"
//
// If not set, Commit is populated from VCS build info when available.
var (
	// Version is the semantic version of the daemon. It is also reported as
	// the firmware_version TXT record in mDNS announcements and in the
	// /device API payload.
	Version = "1.0.0"
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Commit == "" {
		Commit = commitFromBuildInfo()
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// commitFromBuildInfo reads the VCS revision from Go's embedded build info.
func commitFromBuildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	if revision == "" {
		return ""
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified == "true" {
		revision += "-dirty"
	}
	return revision
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
