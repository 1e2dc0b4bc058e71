// Package version holds build metadata, set with
//
//	-ldflags "-X github.com/MrSnakeDoc/boxdpick/internal/version.Version=v0.1.0 -X ...Commit=abcd123"
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().UTC().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// UserAgent identifies boxdpick to the recommendation service.
func UserAgent() string {
	return "boxdpick/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
