package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get merges the link-time variables with the embedded build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// Short is the version with the commit appended, e.g. "1.4.0-3f2a9c1".
func (i Info) Short() string {
	v := i.Version
	if i.Commit != "" {
		v += "-" + i.Commit
	}
	if i.Modified {
		v += "-dirty"
	}
	return v
}

// String is the one-line --version output for name.
func (i Info) String(name string) string {
	return fmt.Sprintf("%s %s (%s)", name, i.Short(), i.GoVersion)
}
