package plastic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// TempFile is a temporary file removed by Close. It is used to hand cm
// content that does not fit on a command line, or to receive a dump.
type TempFile struct {
	path string
}

// NewTempFile creates a temporary file in dir (the system default when empty)
// holding text.
func NewTempFile(dir, text string) (*TempFile, error) {
	f, err := os.CreateTemp(dir, "plastic-go-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	_, werr := f.WriteString(text)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return &TempFile{path: f.Name()}, nil
}

func (t *TempFile) Path() string {
	return t.path
}

// Close removes the file. Calling it again is a no-op.
func (t *TempFile) Close() error {
	if t.path == "" {
		return nil
	}
	err := os.Remove(t.path)
	t.path = ""
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
