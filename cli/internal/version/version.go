package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/satishbabariya/pulseorm/cli/internal/version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info holds version information
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	Modified  bool
	GoVersion string
	Platform  string
}

// Get returns version information. Values not set at link time are taken
// from the module and VCS data embedded by the go tool, when present.
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	return info
}

func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "unknown" {
				i.GitCommit = s.Value
			}
		case "vcs.time":
			if i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
}

func (i Info) String() string {
	return fmt.Sprintf("pulse %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns a detailed version string
func (i Info) FullString() string {
	commit := i.GitCommit
	if i.Modified {
		commit += " (modified)"
	}
	return fmt.Sprintf(`pulse %s
Build Date: %s
Git Commit: %s
Platform:   %s
Go Version: %s`, i.Version, i.BuildDate, commit, i.Platform, i.GoVersion)
}
