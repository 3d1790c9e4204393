// Package version carries build metadata stamped into the binary via ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version tag, or "dev" for untagged builds. The
	// run command falls back to it when worker.version is not configured.
	Version = "dev"

	// CommitHash is the git commit the binary was built from.
	CommitHash = "unknown"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// Info is the resolved build metadata reported by the version command.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get resolves the build metadata for the running binary.
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("workspaced %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}
