// Package buildinfo carries the build stamp injected through ldflags:
//
//	-X github.com/papercomputeco/mnemo/pkg/buildinfo.Version=v0.3.0
package buildinfo

import "runtime"

var (
	Version = "dev"
	Sha     = "HEAD"
	BuiltAt = "dev"
)

// Info is the stamp of the running binary.
type Info struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	BuiltAt   string `json:"built_at"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Current() Info {
	return Info{
		Version:   Version,
		Sha:       Sha,
		BuiltAt:   BuiltAt,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent names mnemo in outbound HTTP requests.
func UserAgent() string {
	return "mnemo/" + Version
}
