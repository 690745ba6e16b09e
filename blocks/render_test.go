package blocks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unknownBlock stands in for a variant the renderer does not recognize.
type unknownBlock struct{}

func (unknownBlock) Kind() Kind { return "unknown" }
func (unknownBlock) block()     {}

func samplePost() []Block {
	return []Block{
		Heading{Text: "Introduction", Level: 1},
		Paragraph{Text: "Service Bus is a message broker."},
		Code{Language: "csharp", Code: "var client = new ServiceBusClient();"},
		Heading{Text: "Further Reading", Level: 2},
		Hyperlink{Href: "https://example.com/docs", Text: "Docs"},
	}
}

func TestRenderPreservesLengthAndOrder(t *testing.T) {
	in := samplePost()
	frags := Render(in)

	require.Len(t, frags, len(in))
	wantKinds := []Kind{KindHeading, KindParagraph, KindCode, KindHeading, KindHyperlink}
	for i, f := range frags {
		assert.Equal(t, i, f.Key, "fragment %d key", i)
		assert.Equal(t, wantKinds[i], f.Kind, "fragment %d kind", i)
	}
	assert.Equal(t, "Introduction", frags[0].Text)
	assert.Equal(t, "Further Reading", frags[3].Text)
}

func TestRenderEmpty(t *testing.T) {
	frags := Render(nil)
	require.NotNil(t, frags)
	assert.Empty(t, frags)

	frags = Render([]Block{})
	require.NotNil(t, frags)
	assert.Empty(t, frags)
}

func TestRenderIsIdempotent(t *testing.T) {
	in := samplePost()
	first := Render(in)
	second := Render(in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Render not idempotent (-first +second):\n%s", diff)
	}
}

func TestRenderClampsHeadingLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{-4, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 3},
		{5, 3},
		{42, 3},
	}
	for _, tt := range tests {
		frags := Render([]Block{Heading{Text: "h", Level: tt.level}})
		require.Len(t, frags, 1)
		assert.Equal(t, tt.want, frags[0].Level, "level %d", tt.level)
	}
}

func TestRenderSkipsUnknownBlocks(t *testing.T) {
	in := []Block{
		Heading{Text: "Title", Level: 1},
		unknownBlock{},
		Paragraph{Text: "Body"},
	}
	frags, issues := RenderReport(in)

	require.Len(t, frags, 2)
	assert.Equal(t, KindHeading, frags[0].Kind)
	assert.Equal(t, 0, frags[0].Key)
	assert.Equal(t, KindParagraph, frags[1].Kind)
	assert.Equal(t, 2, frags[1].Key)

	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, "unknown", issues[0].Type)
	assert.True(t, errors.Is(issues[0], ErrUnknownType))
}

func TestRenderSkipsNilBlocks(t *testing.T) {
	var nilHeading *Heading
	frags, issues := RenderReport([]Block{nil, nilHeading, &Paragraph{Text: "kept"}})

	require.Len(t, frags, 1)
	assert.Equal(t, 2, frags[0].Key)
	assert.Equal(t, "kept", frags[0].Text)
	assert.Len(t, issues, 2)
}

func TestRenderCodeFidelity(t *testing.T) {
	frags := Render([]Block{Code{Language: "sql", Code: "SELECT 1;"}})
	require.Len(t, frags, 1)
	assert.Equal(t, "SELECT 1;", frags[0].Code)
	assert.Equal(t, "sql", frags[0].Language)

	raw := "  \n\tSELECT *\n  FROM t;  \n"
	frags = Render([]Block{Code{Language: "sql", Code: raw}})
	assert.Equal(t, raw, frags[0].Code, "code text must not be trimmed")
}

func TestRenderHyperlinkFields(t *testing.T) {
	frags := Render([]Block{Hyperlink{Href: "https://example.com", Text: "Example"}})
	require.Len(t, frags, 1)
	want := Fragment{
		Key:    0,
		Kind:   KindHyperlink,
		Href:   "https://example.com",
		Text:   "Example",
		Target: "_blank",
		Rel:    "noopener noreferrer",
	}
	if diff := cmp.Diff(want, frags[0]); diff != "" {
		t.Errorf("hyperlink fragment mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRawSkipsMalformed(t *testing.T) {
	raw := []RawBlock{
		{Type: "heading", Data: []byte(`{"text":"Intro","level":1}`)},
		{Type: "unknown", Data: []byte(`{}`)},
		{Type: "paragraph", Data: []byte(`{"text":"Hello"}`)},
	}
	frags, issues := RenderRaw(raw)

	require.Len(t, frags, 2)
	assert.Equal(t, KindHeading, frags[0].Kind)
	assert.Equal(t, "Intro", frags[0].Text)
	assert.Equal(t, KindParagraph, frags[1].Kind)
	assert.Equal(t, "Hello", frags[1].Text)

	assert.Equal(t, 0, frags[0].Key)
	assert.Equal(t, 1, frags[1].Key, "keys index the validated blocks")

	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.ErrorIs(t, issues[0], ErrUnknownType)
}

func renderHTML(t *testing.T, f Fragment) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Render(context.Background(), &buf))
	return buf.String()
}

func TestFragmentHTML(t *testing.T) {
	tests := []struct {
		name string
		frag Fragment
		want string
	}{
		{
			name: "heading",
			frag: Fragment{Kind: KindHeading, Level: 2, Text: "Setup"},
			want: "<h2>Setup</h2>",
		},
		{
			name: "heading level clamped at write time",
			frag: Fragment{Kind: KindHeading, Level: 9, Text: "Deep"},
			want: "<h3>Deep</h3>",
		},
		{
			name: "paragraph escaped",
			frag: Fragment{Kind: KindParagraph, Text: `<script>alert("x")</script> **not bold**`},
			want: "<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; **not bold**</p>",
		},
		{
			name: "code without language",
			frag: Fragment{Kind: KindCode, Code: "a < b"},
			want: `<pre class="code-block"><code>a &lt; b</code></pre>`,
		},
		{
			name: "code with language",
			frag: Fragment{Kind: KindCode, Language: "sql", Code: "SELECT 1;"},
			want: `<div class="code-block-wrapper"><span class="code-lang code-lang-sql">sql</span>` +
				`<pre class="code-block"><code class="language-sql">SELECT 1;</code></pre></div>`,
		},
		{
			name: "hyperlink opens without opener",
			frag: Fragment{Kind: KindHyperlink, Href: "https://example.com/?a=1&b=2", Text: "Example"},
			want: `<p class="block-link"><a href="https://example.com/?a=1&amp;b=2" target="_blank" rel="noopener noreferrer">Example</a></p>`,
		},
		{
			name: "unsafe hyperlink rendered as text",
			frag: Fragment{Kind: KindHyperlink, Href: "javascript:alert(1)", Text: "click"},
			want: `<p class="block-link">click</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderHTML(t, tt.frag))
		})
	}
}

func TestViewWritesFragmentsInOrder(t *testing.T) {
	frags := Render([]Block{
		Heading{Text: "One", Level: 1},
		Paragraph{Text: "Two"},
		Heading{Text: "Three", Level: 2},
	})
	var buf bytes.Buffer
	require.NoError(t, View(frags, nil).Render(context.Background(), &buf))
	got := buf.String()

	one := strings.Index(got, "One")
	two := strings.Index(got, "Two")
	three := strings.Index(got, "Three")
	assert.True(t, one >= 0 && one < two && two < three, "fragments out of order: %q", got)
}

func TestLangClass(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sql", "sql"},
		{"CSharp", "csharp"},
		{"c#", "csharp"},
		{"c++", "cplusplus"},
		{`x" onload="y`, "x--onload--y"},
	}
	for _, tt := range tests {
		if got := langClass(tt.input); got != tt.expected {
			t.Errorf("langClass(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
