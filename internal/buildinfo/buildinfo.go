// Package buildinfo reports what the running binary was built from.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var readBuildInfo = debug.ReadBuildInfo

type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion,omitempty"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Tags      string `json:"tags,omitempty"`
}

// Read collects the module version and VCS stamp. Version is "dev" for
// local builds.
func Read() Info {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return Info{Version: "dev"}
	}
	out := Info{Version: info.Main.Version, GoVersion: info.GoVersion}
	if out.Version == "" || out.Version == "(devel)" {
		out.Version = "dev"
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "-tags":
			out.Tags = setting.Value
		case "vcs.revision":
			out.Revision = setting.Value
		case "vcs.modified":
			out.Modified = setting.Value == "true"
		}
	}
	return out
}

func (i Info) String() string {
	var extra []string
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if i.Modified {
			rev += "-dirty"
		}
		extra = append(extra, "rev: "+rev)
	}
	if i.Tags != "" {
		extra = append(extra, "tags: "+i.Tags)
	}
	if len(extra) == 0 {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, strings.Join(extra, ", "))
}
