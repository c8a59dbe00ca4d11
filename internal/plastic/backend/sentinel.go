package backend

import (
	"bytes"
	"strconv"
	"strings"
)

// resultMarker starts the line cm shell prints after every command, followed
// by the exit code of that command.
const resultMarker = "CommandResult "

type scanState uint8

const (
	scanAccumulating scanState = iota
	scanMarkerFound
	scanDone
)

// sentinelScanner accumulates the output of one command and detects the
// "CommandResult <code>" line terminating it. Each Write only inspects the
// newly appended bytes (plus enough overlap to catch a marker or line
// terminator split across chunks).
type sentinelScanner struct {
	delim []byte
	buf   []byte
	state scanState

	markerAt  int
	delimFrom int
	code      int
}

func newSentinelScanner(delim string) *sentinelScanner {
	return &sentinelScanner{delim: []byte(delim), markerAt: -1}
}

// Write appends a chunk and reports whether the result line is complete.
func (s *sentinelScanner) Write(chunk []byte) bool {
	if s.state == scanDone {
		return true
	}
	prevLen := len(s.buf)
	s.buf = append(s.buf, chunk...)

	// A later marker always supersedes an earlier one: the result line is the
	// last one in the stream.
	from := max(prevLen-len(resultMarker)+1, 0)
	if i := bytes.LastIndex(s.buf[from:], []byte(resultMarker)); i >= 0 {
		s.markerAt = from + i
		s.delimFrom = s.markerAt + len(resultMarker)
		s.state = scanMarkerFound
	}
	if s.state != scanMarkerFound {
		return false
	}

	if j := bytes.Index(s.buf[s.delimFrom:], s.delim); j >= 0 {
		end := s.delimFrom + j
		raw := strings.TrimSpace(string(s.buf[s.markerAt+len(resultMarker) : end]))
		code, err := strconv.Atoi(raw)
		if err != nil {
			code = -1
		}
		s.code = code
		s.state = scanDone
		return true
	}
	s.delimFrom = max(len(s.buf)-len(s.delim)+1, s.markerAt+len(resultMarker))
	return false
}

func (s *sentinelScanner) Done() bool {
	return s.state == scanDone
}

// Code is the parsed exit code, or -1 when no result line was seen or it
// could not be parsed.
func (s *sentinelScanner) Code() int {
	if s.state != scanDone {
		return -1
	}
	return s.code
}

// Output returns everything before the result line. Without a result line
// the whole accumulated buffer is returned.
func (s *sentinelScanner) Output() string {
	if s.state != scanDone {
		return string(s.buf)
	}
	return string(s.buf[:s.markerAt])
}

func (s *sentinelScanner) Len() int {
	return len(s.buf)
}

// Since returns the accumulated output starting at offset, used to log only
// what arrived after a previous timeout warning.
func (s *sentinelScanner) Since(offset int) string {
	if offset >= len(s.buf) {
		return ""
	}
	return string(s.buf[max(offset, 0):])
}
