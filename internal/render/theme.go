package render

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-isatty"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type Theme int

const (
	ThemeAuto Theme = iota
	ThemeLight
	ThemeDark
	ThemeNone
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	case ThemeNone:
		return "none"
	default:
		return "auto"
	}
}

var (
	detectDarkMode = darkmode.IsDarkMode
	isTerminal     = func(fd uintptr) bool {
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
)

func ThemeFromString(raw string) Theme {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	case ThemeNone.String():
		return ThemeNone
	default:
		return ThemeAuto
	}
}

// For returns the theme to use when writing to w: ThemeAuto turns into
// ThemeNone unless w is a terminal. Explicit themes are kept.
func (t Theme) For(w io.Writer) Theme {
	if t != ThemeAuto {
		return t
	}
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f.Fd()) {
		return ThemeNone
	}
	return t
}

// resolve turns ThemeAuto into light or dark from the desktop setting.
func (t Theme) resolve() Theme {
	if t != ThemeAuto {
		return t
	}
	if detectDarkMode != nil {
		dark, err := detectDarkMode()
		if err == nil {
			if dark {
				return ThemeDark
			}
			return ThemeLight
		}
		slog.Debug("detect dark-mode", slog.Any("error", err))
	}
	return ThemeLight
}

// Style returns the chroma style for t, or nil when output is not colored.
func (t Theme) Style() *chroma.Style {
	switch t.resolve() {
	case ThemeNone:
		return nil
	case ThemeDark:
		if st := styles.Get("github-dark"); st != nil {
			return st
		}
	default:
		if st := styles.Get("github"); st != nil {
			return st
		}
	}
	return styles.Fallback
}
