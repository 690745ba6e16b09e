package blocks

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter colours code fragments with chroma, emitting CSS classes so the
// page can load a single stylesheet.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter returns a Highlighter for the named chroma style. Unknown
// names fall back to chroma's default style.
func NewHighlighter(style string) *Highlighter {
	return &Highlighter{
		style:     styles.Get(style),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// Highlight writes code as highlighted HTML. It returns false, writing
// nothing, when no lexer is registered for lang.
func (h *Highlighter) Highlight(w io.Writer, lang, code string) (bool, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return false, nil
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false, nil
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return false, nil
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return false, err
	}
	_, err = w.Write(buf.Bytes())
	return true, err
}

// WriteCSS writes the stylesheet for the highlighter's classes.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
