package version

// Set at build time with -ldflags "-X walletbridge/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitURL    = "unknown"
	BuildDate = "unknown"
)
