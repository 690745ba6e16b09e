package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownType = errors.New("unrecognized block type")
	ErrMissingData = errors.New("block has no data")
	ErrInvalidData = errors.New("block data does not match its type")
	ErrUnsafeHref  = errors.New("hyperlink must use http, https or mailto")
)

// RawBlock is the JSON shape of a block before validation.
type RawBlock struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Issue reports a block that was dropped. Index is its position in the
// sequence being parsed or rendered.
type Issue struct {
	Index int
	Type  string
	Err   error
}

func (i Issue) Error() string {
	if i.Type == "" {
		return fmt.Sprintf("block %d: %v", i.Index, i.Err)
	}
	return fmt.Sprintf("block %d (%s): %v", i.Index, i.Type, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

func (i Issue) MarshalJSON() ([]byte, error) {
	var reason string
	if i.Err != nil {
		reason = i.Err.Error()
	}
	return json.Marshal(struct {
		Index  int    `json:"index"`
		Type   string `json:"type,omitempty"`
		Reason string `json:"reason"`
	}{i.Index, i.Type, reason})
}

var dataSchemas = compileSchemas(map[Kind]string{
	KindHeading: `{
		"type": "object",
		"required": ["text", "level"],
		"properties": {
			"text": {"type": "string"},
			"level": {"type": "integer"}
		}
	}`,
	KindParagraph: `{
		"type": "object",
		"required": ["text"],
		"properties": {
			"text": {"type": "string"}
		}
	}`,
	KindCode: `{
		"type": "object",
		"required": ["language", "code"],
		"properties": {
			"language": {"type": "string"},
			"code": {"type": "string"}
		}
	}`,
	KindHyperlink: `{
		"type": "object",
		"required": ["href", "text"],
		"properties": {
			"href": {"type": "string", "minLength": 1},
			"text": {"type": "string"}
		}
	}`,
})

func compileSchemas(src map[Kind]string) map[Kind]*gojsonschema.Schema {
	out := make(map[Kind]*gojsonschema.Schema, len(src))
	for kind, s := range src {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
		if err != nil {
			panic(fmt.Sprintf("blocks: compile %s schema: %v", kind, err))
		}
		out[kind] = schema
	}
	return out
}

// Parse validates raw blocks and converts them into the closed variant types.
// Malformed blocks are dropped and reported; the order of the remaining
// blocks is preserved. Heading levels are not range-checked here.
func Parse(raw []RawBlock) ([]Block, []Issue) {
	out := make([]Block, 0, len(raw))
	var issues []Issue
	for i, rb := range raw {
		b, err := parseBlock(rb)
		if err != nil {
			issues = append(issues, Issue{Index: i, Type: rb.Type, Err: err})
			continue
		}
		out = append(out, b)
	}
	return out, issues
}

// Decode parses a JSON array of raw blocks. The error is non-nil only when
// data is not such an array; per-block problems are returned as issues.
func Decode(data []byte) ([]Block, []Issue, error) {
	var raw []RawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode blocks: %w", err)
	}
	parsed, issues := Parse(raw)
	return parsed, issues, nil
}

func parseBlock(rb RawBlock) (Block, error) {
	kind := Kind(rb.Type)
	schema, ok := dataSchemas[kind]
	if !ok {
		return nil, ErrUnknownType
	}
	if len(rb.Data) == 0 {
		return nil, ErrMissingData
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(rb.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if !res.Valid() {
		msgs := make([]string, len(res.Errors()))
		for i, e := range res.Errors() {
			msgs[i] = e.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(msgs, "; "))
	}

	var b Block
	switch kind {
	case KindHeading:
		var h struct {
			Text  string      `json:"text"`
			Level json.Number `json:"level"`
		}
		if err = json.Unmarshal(rb.Data, &h); err == nil {
			b = Heading{Text: h.Text, Level: headingLevel(h.Level)}
		}
	case KindParagraph:
		var p Paragraph
		err = json.Unmarshal(rb.Data, &p)
		b = p
	case KindCode:
		var c Code
		err = json.Unmarshal(rb.Data, &c)
		b = c
	case KindHyperlink:
		var h Hyperlink
		if err = json.Unmarshal(rb.Data, &h); err == nil {
			err = checkHref(h.Href)
		}
		b = h
	}
	if err != nil {
		if errors.Is(err, ErrUnsafeHref) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return b, nil
}

// headingLevel reads a level the schema has already checked is integral.
// Integral floats such as 2.0 are accepted; values outside the int32 range
// saturate to the nearest heading bound.
func headingLevel(n json.Number) int {
	if v, err := n.Int64(); err == nil && v >= math.MinInt32 && v <= math.MaxInt32 {
		return int(v)
	}
	f, err := n.Float64()
	switch {
	case err == nil && f >= math.MinInt32 && f <= math.MaxInt32:
		return int(f)
	case strings.HasPrefix(n.String(), "-"):
		return MinHeadingLevel
	default:
		return MaxHeadingLevel
	}
}

func checkHref(href string) error {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeHref, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return ErrUnsafeHref
		}
		return nil
	case "mailto":
		return nil
	default:
		return ErrUnsafeHref
	}
}

// ToRaw converts blocks back into their JSON boundary form.
func ToRaw(blocks []Block) ([]RawBlock, error) {
	out := make([]RawBlock, 0, len(blocks))
	for i, b := range blocks {
		b = normalize(b)
		switch b.(type) {
		case Heading, Paragraph, Code, Hyperlink:
		default:
			return nil, Issue{Index: i, Type: kindOf(b), Err: ErrUnknownType}
		}
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode block %d: %w", i, err)
		}
		out = append(out, RawBlock{Type: string(b.Kind()), Data: data})
	}
	return out, nil
}

// Marshal encodes blocks as the JSON array accepted by Decode.
func Marshal(blocks []Block) ([]byte, error) {
	raw, err := ToRaw(blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}
