package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// These are intended to be overridden via -ldflags at build time.
// Example:
//
//	go build -ldflags "\
//	  -X 'github.com/danielsiegl/sqltrim/internal/version.Version=1.0.0' \
//	  -X 'github.com/danielsiegl/sqltrim/internal/version.GitCommit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/danielsiegl/sqltrim/internal/version.GitBranch=$(git rev-parse --abbrev-ref HEAD)' \
//	  -X 'github.com/danielsiegl/sqltrim/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)'" \
//	  .
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	GitBranch string `json:"gitBranch"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: shortCommit(GitCommit),
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	return fmt.Sprintf("sqltrim %s (commit: %s, branch: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.GitBranch, i.BuildTime, i.GoVersion, i.Platform)
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}
	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
