package blocks

// External links open in a new browsing context without an opener reference.
const (
	ExternalTarget = "_blank"
	ExternalRel    = "noopener noreferrer"
)

// Fragment is the display-ready form of a single block. Key is the position
// of the block in the sequence it was rendered from.
type Fragment struct {
	Key      int    `json:"key"`
	Kind     Kind   `json:"kind"`
	Level    int    `json:"level,omitempty"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
	Href     string `json:"href,omitempty"`
	Target   string `json:"target,omitempty"`
	Rel      string `json:"rel,omitempty"`
}

// Render produces one fragment per recognized block, in input order.
// Unrecognized blocks are skipped. Heading levels are clamped into
// [MinHeadingLevel, MaxHeadingLevel]. The result is never nil.
func Render(blocks []Block) []Fragment {
	frags, _ := RenderReport(blocks)
	return frags
}

// RenderReport is Render that also reports the positions it skipped.
func RenderReport(blocks []Block) ([]Fragment, []Issue) {
	frags := make([]Fragment, 0, len(blocks))
	var issues []Issue
	for i, b := range blocks {
		switch v := normalize(b).(type) {
		case Heading:
			frags = append(frags, Fragment{
				Key:   i,
				Kind:  KindHeading,
				Level: ClampLevel(v.Level),
				Text:  v.Text,
			})
		case Paragraph:
			frags = append(frags, Fragment{
				Key:  i,
				Kind: KindParagraph,
				Text: v.Text,
			})
		case Code:
			frags = append(frags, Fragment{
				Key:      i,
				Kind:     KindCode,
				Language: v.Language,
				Code:     v.Code,
			})
		case Hyperlink:
			frags = append(frags, Fragment{
				Key:    i,
				Kind:   KindHyperlink,
				Href:   v.Href,
				Text:   v.Text,
				Target: ExternalTarget,
				Rel:    ExternalRel,
			})
		default:
			issues = append(issues, Issue{
				Index: i,
				Type:  kindOf(v),
				Err:   ErrUnknownType,
			})
		}
	}
	return frags, issues
}

// RenderRaw parses raw blocks and renders the valid ones. Issues carry the
// positions of the raw input, while fragment keys index the validated
// sequence: for [heading, unknown, paragraph] the fragments are keyed 0 and 1,
// not 0 and 2 as RenderReport would key the same three blocks.
func RenderRaw(raw []RawBlock) ([]Fragment, []Issue) {
	parsed, issues := Parse(raw)
	return Render(parsed), issues
}
