// Package version reports build information for the khazana binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X khazana/internal/version.Version=..." at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info contains version and build information
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	BuildTime   string `json:"buildTime"`
	GoVersion   string `json:"goVersion"`
	VCSRevision string `json:"vcsRevision,omitempty"`
	VCSModified bool   `json:"vcsModified"`
}

// Get returns the current version and build information
func Get() Info {
	info := Info{
		Name:      "khazana",
		Version:   Version,
		BuildTime: BuildTime,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.VCSRevision = setting.Value
			case "vcs.modified":
				info.VCSModified = setting.Value == "true"
			}
		}
	}

	return info
}

// String returns a one-line summary, e.g. "khazana dev (go1.24.6, 1a2b3c4d)"
func (i Info) String() string {
	details := []string{}
	if i.GoVersion != "" {
		details = append(details, i.GoVersion)
	}
	if i.VCSRevision != "" {
		rev := i.VCSRevision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if i.VCSModified {
			rev += "+dirty"
		}
		details = append(details, rev)
	}
	if i.BuildTime != "unknown" {
		details = append(details, "built "+i.BuildTime)
	}

	s := fmt.Sprintf("%s %s", i.Name, i.Version)
	if len(details) > 0 {
		s += " (" + strings.Join(details, ", ") + ")"
	}
	return s
}
