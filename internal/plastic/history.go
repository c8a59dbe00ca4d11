package plastic

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// historyParams asks "cm history" for "<changeset>;<revision id>" lines.
var historyParams = []string{`--format="{1};{6}"`}

// parseHistoryRecord splits one "cm history" line such as "17;220".
func parseHistoryRecord(line string) (changeset, revID string, err error) {
	var fields []string
	for _, f := range strings.Split(line, ";") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrHistoryRecord, line)
	}
	return fields[0], fields[1], nil
}

// correlateHistory resolves every history record with "cm log". Records are
// walked from the last line to the first. On the first malformed record or
// failed lookup it stops and returns what was built so far along with the
// error; a revision whose lookup failed is still included.
func (s *Service) correlateHistory(ctx context.Context, lines []string, repo RepositorySpec) (History, error) {
	history := make(History, 0, len(lines))
	var err error
	for i := len(lines) - 1; i >= 0; i-- {
		changeset, revID, perr := parseHistoryRecord(lines[i])
		if perr != nil {
			err = perr
			break
		}
		rev := Revision{
			ChangesetNumber: atoi(changeset),
			RevisionNumber:  atoi(revID),
			Revision:        revID,
		}
		lerr := s.runLog(ctx, changeset, repo, &rev)
		history = append(history, rev)
		if lerr != nil {
			err = lerr
			break
		}
	}
	sortHistory(history)
	return history, err
}

// sortHistory orders revisions oldest first.
func sortHistory(h History) {
	sort.SliceStable(h, func(i, j int) bool {
		return h[i].ChangesetNumber < h[j].ChangesetNumber
	})
}

func (s *Service) runLog(ctx context.Context, changeset string, repo RepositorySpec, rev *Revision) error {
	res := s.backend.Execute(ctx, "log", logParams(changeset, repo), nil)
	if !res.Success {
		return fmt.Errorf("cm log cs:%s: %s", changeset, strings.Join(res.ErrorLines(), "; "))
	}
	return parseLog(res.Output, rev)
}
