// Package producer collects environment metadata stamped into manifests.
package producer

import (
	"os"
	"runtime"
)

// Collect gathers metadata about the machine and tool producing an archive.
// The result is treated as opaque by the import side.
func Collect(version string) map[string]string {
	hostname, _ := os.Hostname()

	return map[string]string{
		"tool":     "cask",
		"version":  version,
		"hostname": hostname,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
	}
}
