package version

// Version is the current version of zfs-stats.
// Overridden at build time with -ldflags "-X github.com/IYouKnow/zfs-stats/internal/version.Version=...".
var Version = "0.3.0"
