// Package version holds build-time version metadata, set via -ldflags and
// surfaced through cmd/reflex's --version flag.
package version

var (
	Version = "0.1.0"

	// BuildDate is set during build time (use -ldflags)
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns the short version string cli.App.Version reports.
func Info() string {
	return Version
}

// FullInfo returns detailed version information. No command in cmd/reflex
// calls it.
func FullInfo() string {
	return "reflex " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
