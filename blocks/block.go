// Package blocks models a post body as an ordered sequence of typed content
// blocks and renders each block into a display fragment.
//
// Raw JSON enters through Parse, which validates every block against the
// schema of its declared type and converts it into one of the closed variants
// below. Render turns the validated sequence into fragments, one per block,
// keyed by position. Fragments are templ components and can be written
// directly into a page.
package blocks

// Kind is the discriminator of a block.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindCode      Kind = "code"
	KindHyperlink Kind = "hyperlink"
)

// Heading levels outside this range are clamped when rendered.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 3
)

// Block is one unit of post content. The set of implementations is closed:
// Heading, Paragraph, Code and Hyperlink.
type Block interface {
	Kind() Kind
	block()
}

// Heading is a section heading at a nesting level.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Paragraph is literal prose. It is never interpreted as markdown or HTML.
type Paragraph struct {
	Text string `json:"text"`
}

// Code is a source snippet. Language is a hint for the highlighter only.
type Code struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Hyperlink is an external link.
type Hyperlink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

func (Heading) Kind() Kind   { return KindHeading }
func (Paragraph) Kind() Kind { return KindParagraph }
func (Code) Kind() Kind      { return KindCode }
func (Hyperlink) Kind() Kind { return KindHyperlink }

func (Heading) block()   {}
func (Paragraph) block() {}
func (Code) block()      {}
func (Hyperlink) block() {}

// ClampLevel forces a heading level into [MinHeadingLevel, MaxHeadingLevel].
func ClampLevel(level int) int {
	if level < MinHeadingLevel {
		return MinHeadingLevel
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

// normalize dereferences pointer variants so callers may build sequences from
// either values or pointers. A nil pointer becomes a nil Block.
func normalize(b Block) Block {
	switch v := b.(type) {
	case *Heading:
		if v == nil {
			return nil
		}
		return *v
	case *Paragraph:
		if v == nil {
			return nil
		}
		return *v
	case *Code:
		if v == nil {
			return nil
		}
		return *v
	case *Hyperlink:
		if v == nil {
			return nil
		}
		return *v
	}
	return b
}

func kindOf(b Block) string {
	if b == nil {
		return ""
	}
	return string(b.Kind())
}
