package plastic

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// logList is the document printed by "cm log --xml" for one changeset.
type logList struct {
	XMLName    xml.Name       `xml:"LogList"`
	Changesets []logChangeset `xml:"Changeset"`
}

type logChangeset struct {
	ChangesetID string    `xml:"ChangesetId"`
	Branch      string    `xml:"Branch"`
	Comment     string    `xml:"Comment"`
	Owner       string    `xml:"Owner"`
	Date        string    `xml:"Date"`
	Items       []logItem `xml:"Changes>Item"`
}

type logItem struct {
	RevID       string `xml:"RevId"`
	ParentRevID string `xml:"ParentRevId"`
	SrcCmPath   string `xml:"SrcCmPath"`
	DstCmPath   string `xml:"DstCmPath"`
	Type        string `xml:"Type"`
}

func logParams(changeset string, repo RepositorySpec) []string {
	return []string{
		fmt.Sprintf("cs:%s@rep:%s@repserver:%s", changeset, repo.RepositoryName, repo.ServerURL),
		"--xml",
		`--encoding="utf-8"`,
	}
}

// parseLog fills rev from a "cm log --xml" document. rev.RevisionNumber
// selects the change item describing the file.
func parseLog(doc string, rev *Revision) error {
	var list logList
	if err := xml.Unmarshal([]byte(doc), &list); err != nil {
		return fmt.Errorf("parse cm log: %w", err)
	}
	if len(list.Changesets) == 0 {
		return nil
	}
	cs := list.Changesets[0]
	rev.Description = cs.Comment
	rev.Author = cs.Owner
	if cs.Date != "" {
		date, err := parseLogDate(cs.Date)
		if err != nil {
			return fmt.Errorf("parse cm log date: %w", err)
		}
		rev.Date = date
	}

	// A rename is logged as two items for the same revision (Changed, then
	// Moved), so every item is visited and the last match wins.
	for _, item := range cs.Items {
		if item.RevID == "" || atoi(item.RevID) != rev.RevisionNumber {
			continue
		}
		if item.DstCmPath != "" {
			rev.Filename = item.DstCmPath
			if item.ParentRevID != "" && item.SrcCmPath != "" && item.SrcCmPath != item.DstCmPath {
				rev.RenamedFrom = &RenamedFrom{
					Filename:       item.SrcCmPath,
					RevisionNumber: atoi(item.ParentRevID),
				}
			}
		}
		if item.Type != "" {
			rev.Action = translateAction(item.Type)
		}
	}
	return nil
}

// translateAction maps a cm change type to a history action keyword.
func translateAction(t string) string {
	switch t {
	case "Added":
		return "add"
	case "Moved":
		return "branch"
	case "Deleted":
		return "delete"
	default:
		return "edit"
	}
}

const logDateLayout = "2006-01-02T15:04:05.000Z07:00"

// parseLogDate parses cm log dates, which carry seven fractional digits
// ("2016-04-18T10:44:49.0000000+02:00"). Only milliseconds are kept.
func parseLogDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return time.Parse(time.RFC3339, s)
	}
	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	frac := s[dot+1 : end]
	for len(frac) < 3 {
		frac += "0"
	}
	return time.Parse(logDateLayout, s[:dot+1]+frac[:3]+s[end:])
}
