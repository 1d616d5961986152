package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// RenderAndPrintMarkdown highlights a model answer line by line. Lines inside a fenced block that start
// with "+" or "-" are colored as diff output, everything else goes through chroma.
func RenderAndPrintMarkdown(w io.Writer, content string, theme string) error {
	return RenderMarkdownWithContext(context.Background(), w, content, theme)
}

// RenderMarkdownWithContext is RenderAndPrintMarkdown with cancellation between lines.
func RenderMarkdownWithContext(ctx context.Context, w io.Writer, content string, theme string) error {
	isCodeBlock := false
	language := "markdown"

	for _, line := range strings.Split(content, "\n") {
		select {
		case <-ctx.Done():
			fmt.Fprintf(w, "\n\n🔄 Output interrupted...\n")
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			isCodeBlock = !isCodeBlock
			if isCodeBlock {
				language = DetectLanguageFromCodeBlock(line)
			} else {
				language = "markdown"
			}
			fmt.Fprintln(w, line)
			continue
		}

		if strings.HasPrefix(line, "+") && isCodeBlock {
			fmt.Fprint(w, "\x1b[92m"+line+"\x1b[0m\n")
		} else if strings.HasPrefix(line, "-") && isCodeBlock {
			fmt.Fprint(w, "\x1b[91m"+line+"\x1b[0m\n")
		} else {
			var buf bytes.Buffer
			if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
				return err
			}
			fmt.Fprint(w, buf.String())
		}
	}

	return nil
}

// DetectLanguageFromCodeBlock returns the language tag of an opening fence, or "text".
func DetectLanguageFromCodeBlock(fence string) string {
	language := strings.TrimSpace(strings.TrimPrefix(fence, "```"))
	if language == "" {
		return "text"
	}
	return language
}

// DetectLanguageFromPath resolves a chroma lexer alias for a file, falling back to "text".
func DetectLanguageFromPath(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return "text"
	}
	if aliases := lexer.Config().Aliases; len(aliases) > 0 {
		return aliases[0]
	}
	return strings.ToLower(lexer.Config().Name)
}
