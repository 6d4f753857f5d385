// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionString renders the version with its build metadata, suitable for
// the root command's --version output.
func VersionString() string {
	return fmt.Sprintf("%s (sha: %s, built: %s)", Version, Sha, Buildtime)
}
