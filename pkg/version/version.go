// Package version provides build information for the ctxgather CLI.
package version

import (
	"fmt"
	"runtime"
)

// Populated at build time, for example:
// go build -ldflags "-X 'ctxgather/pkg/version.Version=0.3.0' -X 'ctxgather/pkg/version.Commit=abc1234'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `yaml:"version"`
	GitCommit string `yaml:"commit"`
	BuildTime string `yaml:"buildTime"`
	GoVersion string `yaml:"goVersion"`
	Platform  string `yaml:"platform"` // GOOS/GOARCH
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders Info on one line:
// ctxgather 0.3.0 (commit abc1234, built 2024-04-27T15:04:05Z, go1.23.1 linux/amd64)
func (i Info) String() string {
	return fmt.Sprintf("ctxgather %s (commit %s, built %s, %s %s)",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}
