package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Oldest cm release the shell protocol has been used with. Older versions
// still work in most cases, so this only produces a warning.
var minVersion = Version{Major: 5, Minor: 0}

// Version is a cm release number such as 5.4.16.719.
type Version struct {
	Major int
	Minor int
	Patch int
	Build int
}

func MinVersion() Version {
	return minVersion
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	if v.Patch != other.Patch {
		return v.Patch < other.Patch
	}
	return v.Build < other.Build
}

// Supported reports whether v is at least the minimum known version.
func (v Version) Supported() bool {
	return !v.Less(minVersion)
}

// ParseVersion parses the output of "cm version". Only the first line is
// considered and at least major.minor is required.
func ParseVersion(out string) (Version, bool) {
	s := strings.TrimSpace(out)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return Version{}, false
	}
	s = s[start:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) < 2 {
		return Version{}, false
	}

	nums := make([]int, 4)
	for i := 0; i < len(parts) && i < len(nums); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, false
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: nums[3]}, true
}
