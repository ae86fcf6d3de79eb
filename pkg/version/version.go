package version

var (
	// Version contains the current version of ifwatchd
	Version = "dev"

	// CommitHash contains the current git commit hash
	CommitHash = "unknown"

	// BuildTime contains the time of build
	BuildTime = "unknown"
)

// String is the one-line banner printed by -version.
func String() string {
	return "ifwatchd version " + Version + " (commit: " + CommitHash + ", built at: " + BuildTime + ")"
}
