// Package version carries build metadata injected at link time via
// -ldflags "-X github.com/imclab/atlaas/internal/version.Version=...".
package version

var (
	// Version is the current release version.
	Version = "dev"
	// GitSHA is the git commit SHA of the build.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the metadata as a single human-readable line.
func String() string {
	return Version + " (" + GitSHA + ", " + BuildTime + ")"
}
