// Package buildinfo holds values stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/m3rciful/weatherbot/core/buildinfo.Version=v1.4.0 \
//	  -X github.com/m3rciful/weatherbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "local"
	// Date is the RFC 3339 build time; empty for local builds.
	Date = ""
)

// String is the one-line build description the bot logs at startup and
// serves from the health endpoint.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, Date)
}
