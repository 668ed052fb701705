// Package version provides build version information for the mandrill
// library and its command-line tool.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const unknownValue = "unknown"

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information.
type BuildInfo struct {
	Version    string
	BuildDate  string
	GitCommit  string
	GoVersion  string
	ModulePath string
}

// Info collects build information from the ldflags variables and the
// embedded module metadata.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.ModulePath = buildInfo.Main.Path
	}

	return info
}

// String returns a formatted version report.
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("mandrill skew-aware join toolkit\n")
	sb.WriteString(fmt.Sprintf("Version: %s\n", b.Version))

	if b.BuildDate != unknownValue {
		sb.WriteString(fmt.Sprintf("Build Date: %s\n", b.BuildDate))
	}
	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		sb.WriteString(fmt.Sprintf("Git Commit: %s\n", commit))
	}

	sb.WriteString(fmt.Sprintf("Go Version: %s\n", b.GoVersion))
	if b.ModulePath != "" {
		sb.WriteString(fmt.Sprintf("Module: %s\n", b.ModulePath))
	}

	return sb.String()
}

// IsRelease reports whether this is a tagged release build.
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
