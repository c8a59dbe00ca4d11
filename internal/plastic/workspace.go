package plastic

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// workspaceMarker is the directory cm keeps at the root of every workspace.
const workspaceMarker = ".plastic"

// FindBinaryPath returns the default cm location for the current platform.
func FindBinaryPath() string {
	return binaryPathFor(runtime.GOOS)
}

func binaryPathFor(goos string) string {
	if goos == "windows" {
		return "cm"
	}
	return "/usr/bin/cm"
}

// FindRootDirectory walks up from path looking for the workspace marker
// directory. When none is found it returns path unchanged and false.
func FindRootDirectory(path string) (string, bool) {
	root := strings.TrimRight(path, `\`)
	root = strings.TrimRight(root, "/")

	for root != "" {
		if isDir(filepath.Join(root, workspaceMarker)) {
			return root, true
		}
		i := strings.LastIndexAny(root, `/\`)
		if i < 0 {
			break
		}
		root = root[:i]
	}
	return path, false
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseRepositorySpec parses the first line of "cm status --nochanges", e.g.
// "cs:41@rep:UE4PlasticPlugin@repserver:localhost:8087".
func parseRepositorySpec(line string) (RepositorySpec, error) {
	fields := strings.Split(strings.TrimSpace(line), "@")
	if len(fields) != 3 {
		return RepositorySpec{}, fmt.Errorf("unexpected workspace status %q", line)
	}
	return RepositorySpec{
		Changeset:      strings.TrimPrefix(fields[0], "cs:"),
		RepositoryName: strings.TrimPrefix(fields[1], "rep:"),
		ServerURL:      strings.TrimPrefix(fields[2], "repserver:"),
	}, nil
}

// groupByDirectory groups files by parent directory, keeping the order in
// which directories and files first appear.
func groupByDirectory(files []string) [][]string {
	index := make(map[string]int)
	var groups [][]string
	for _, f := range files {
		dir := filepath.Dir(f)
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], f)
	}
	return groups
}
