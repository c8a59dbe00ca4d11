package plastic

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindRootDirectory(t *testing.T) {
	t.Parallel()

	base := filepath.ToSlash(t.TempDir())
	root := base + "/project"
	nested := root + "/Content/Maps/Sub"
	if err := os.MkdirAll(filepath.FromSlash(nested), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.FromSlash(root+"/.plastic"), 0o755); err != nil {
		t.Fatal(err)
	}

	for _, start := range []string{nested, nested + "/", nested + "//", root, root + `\`} {
		got, ok := FindRootDirectory(start)
		if !ok || filepath.Clean(got) != filepath.Clean(filepath.FromSlash(root)) {
			t.Fatalf("FindRootDirectory(%q) = %q, %v; want %q", start, got, ok, root)
		}
	}
}

func TestFindRootDirectory_NotFound(t *testing.T) {
	t.Parallel()

	dir := filepath.ToSlash(t.TempDir()) + "/a/b/"
	if err := os.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := FindRootDirectory(dir)
	if ok {
		t.Fatalf("unexpected root %q", got)
	}
	if got != dir {
		t.Fatalf("got %q, want the input %q unchanged", got, dir)
	}
}

func TestFindRootDirectory_MarkerMustBeDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.ToSlash(t.TempDir()) + "/ws"
	if err := os.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.FromSlash(dir+"/.plastic"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := FindRootDirectory(dir); ok {
		t.Fatal("a regular .plastic file is not a workspace marker")
	}
}

func TestBinaryPathFor(t *testing.T) {
	t.Parallel()

	if binaryPathFor("windows") != "cm" {
		t.Fatal("windows binary")
	}
	if binaryPathFor("linux") != "/usr/bin/cm" || binaryPathFor("darwin") != "/usr/bin/cm" {
		t.Fatal("unix binary")
	}
}

func TestParseRepositorySpec(t *testing.T) {
	t.Parallel()

	got, err := parseRepositorySpec("cs:41@rep:UE4PlasticPlugin@repserver:localhost:8087")
	if err != nil {
		t.Fatalf("parseRepositorySpec: %v", err)
	}
	want := RepositorySpec{Changeset: "41", RepositoryName: "UE4PlasticPlugin", ServerURL: "localhost:8087"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for _, bad := range []string{"", "cs:41@rep:x", "cs:1@rep:x@repserver:y@extra"} {
		if _, err := parseRepositorySpec(bad); err == nil {
			t.Fatalf("parseRepositorySpec(%q) should fail", bad)
		}
	}
}

func TestGroupByDirectory(t *testing.T) {
	t.Parallel()

	files := []string{"/ws/b/1", "/ws/a/1", "/ws/b/2", "/ws/c", "/ws/a/2"}
	got := groupByDirectory(files)
	want := [][]string{{"/ws/b/1", "/ws/b/2"}, {"/ws/a/1", "/ws/a/2"}, {"/ws/c"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}
