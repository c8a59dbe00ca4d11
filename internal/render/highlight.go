package render

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
)

const formatterName = "terminal256"

// Diff writes a unified diff to w, colored with theme.
func Diff(w io.Writer, diff string, theme Theme) error {
	return write(w, lexers.Get("diff"), diff, theme)
}

// Source writes file content to w, colored by the lexer matching path.
func Source(w io.Writer, path, content string, theme Theme) error {
	return write(w, lexerForPath(path), content, theme)
}

func write(w io.Writer, lexer chroma.Lexer, content string, theme Theme) error {
	style := theme.Style()
	if style == nil || lexer == nil || content == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, content)
	if err != nil {
		return fmt.Errorf("tokenise: %w", err)
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	return nil
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return lexer
}
