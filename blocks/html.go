package blocks

import (
	"bytes"
	"context"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Render writes the fragment as HTML without syntax highlighting, which makes
// a Fragment usable as a templ.Component.
func (f Fragment) Render(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	if err := writeFragment(&buf, f, nil); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// View returns a component writing frags in order. When hl is non-nil, code
// fragments with a known language are syntax highlighted.
func View(frags []Fragment, hl *Highlighter) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		for _, f := range frags {
			if err := writeFragment(&buf, f, hl); err != nil {
				return err
			}
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeFragment(buf *bytes.Buffer, f Fragment, hl *Highlighter) error {
	switch f.Kind {
	case KindHeading:
		tag := "h" + strconv.Itoa(ClampLevel(f.Level))
		buf.WriteString("<" + tag + ">")
		buf.WriteString(html.EscapeString(f.Text))
		buf.WriteString("</" + tag + ">")
	case KindParagraph:
		buf.WriteString("<p>")
		buf.WriteString(html.EscapeString(f.Text))
		buf.WriteString("</p>")
	case KindCode:
		return writeCode(buf, f, hl)
	case KindHyperlink:
		if checkHref(f.Href) != nil {
			buf.WriteString(`<p class="block-link">`)
			buf.WriteString(html.EscapeString(f.Text))
			buf.WriteString("</p>")
			return nil
		}
		buf.WriteString(`<p class="block-link"><a href="`)
		buf.WriteString(html.EscapeString(f.Href))
		buf.WriteString(`" target="` + ExternalTarget + `" rel="` + ExternalRel + `">`)
		buf.WriteString(html.EscapeString(f.Text))
		buf.WriteString("</a></p>")
	}
	return nil
}

func writeCode(buf *bytes.Buffer, f Fragment, hl *Highlighter) error {
	lang := strings.TrimSpace(f.Language)
	if lang != "" {
		escapedLang := html.EscapeString(lang)
		class := langClass(lang)
		buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + class + `">` + escapedLang + `</span>`)
		defer buf.WriteString("</div>")
	}
	if hl != nil && lang != "" {
		ok, err := hl.Highlight(buf, lang, f.Code)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	if lang != "" {
		buf.WriteString(`<pre class="code-block"><code class="language-` + langClass(lang) + `">`)
	} else {
		buf.WriteString(`<pre class="code-block"><code>`)
	}
	buf.WriteString(html.EscapeString(f.Code))
	buf.WriteString("</code></pre>")
	return nil
}

// langClass reduces a language tag to a token safe inside a class attribute.
func langClass(lang string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(lang) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '#':
			b.WriteString("sharp")
		case r == '+':
			b.WriteString("plus")
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
