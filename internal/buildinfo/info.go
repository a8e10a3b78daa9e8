// Package buildinfo holds release metadata stamped in by the linker, e.g.
//
//	go build -ldflags "-X github.com/pacioli-dev/pacioli/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the short git hash the binary was built from.
	Commit = "none"
	// Date is the build time in RFC 3339.
	Date = "unknown"
)
