package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const name = "plastic-go"

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the short VCS revision stamped by the go tool, with a
// "-dirty" suffix for modified trees.
func Revision() string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	var rev string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// Describe formats the version line printed by "plastic-go version". The cm
// version is included when known.
func Describe(cmVersion string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", name, Version())
	if rev := Revision(); rev != "" {
		fmt.Fprintf(&sb, " (%s)", rev)
	}
	if cmVersion = strings.TrimSpace(cmVersion); cmVersion != "" {
		fmt.Fprintf(&sb, ", cm %s", cmVersion)
	}
	return sb.String()
}
