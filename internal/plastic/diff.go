package plastic

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const DefaultDiffContext = 3

// DiffWithDepot diffs the workspace copy of file against its head revision
// on the server. The head revision is dumped into a temporary file first.
func (s *Service) DiffWithDepot(ctx context.Context, file string, contextLines int) (string, error) {
	repo := s.Info().Repository
	if repo.RepositoryName == "" {
		return "", ErrNoRepository
	}
	lines, errLines, ok := s.RunCommand(ctx, "history", historyParams, []string{file})
	if !ok {
		return "", commandError("history", errLines)
	}
	revID, err := headRevisionID(lines)
	if err != nil {
		return "", err
	}

	tmp, err := NewTempFile("", "")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	revSpec := fmt.Sprintf("revid:%s@rep:%s@repserver:%s", revID, repo.RepositoryName, repo.ServerURL)
	if err := s.DumpToFile(ctx, revSpec, tmp.Path()); err != nil {
		return "", err
	}
	depot, err := os.ReadFile(tmp.Path())
	if err != nil {
		return "", fmt.Errorf("read depot revision: %w", err)
	}
	local, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read workspace file: %w", err)
	}
	return unifiedDiff(s.relPath(file), revID, depot, local, contextLines)
}

// headRevisionID picks the revision id of the highest changeset listed by
// "cm history".
func headRevisionID(lines []string) (string, error) {
	best, bestCS := "", -1
	for _, line := range lines {
		cs, revID, err := parseHistoryRecord(line)
		if err != nil {
			return "", err
		}
		if n := atoi(cs); n > bestCS {
			best, bestCS = revID, n
		}
	}
	if best == "" {
		return "", fmt.Errorf("no revision in history")
	}
	return best, nil
}

func (s *Service) relPath(file string) string {
	if rel, err := filepath.Rel(s.root, file); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(file)
}

func unifiedDiff(name, revID string, depot, local []byte, contextLines int) (string, error) {
	if bytes.Equal(depot, local) {
		return "", nil
	}
	if IsBinary(depot) || IsBinary(local) {
		return fmt.Sprintf("Binary files %s differ\n", name), nil
	}
	if contextLines < 0 {
		contextLines = DefaultDiffContext
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(depot)),
		B:        difflib.SplitLines(string(local)),
		FromFile: fmt.Sprintf("a/%s", name),
		FromDate: "revid:" + revID,
		ToFile:   fmt.Sprintf("b/%s", name),
		ToDate:   "workspace",
		Context:  contextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", err
	}
	return text, nil
}

// IsBinary reports whether content holds a NUL byte, the same test diff
// tools use to refuse a textual diff.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}
