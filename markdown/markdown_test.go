package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, input string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, input); err != nil {
		t.Fatalf("RenderMarkdown(%q) failed: %v", input, err)
	}
	return buf.String()
}

func TestRenderMarkdownHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", `<h1 id="heading-1">Heading 1</h1>`},
		{"## Heading 2", `<h2 id="heading-2">Heading 2</h2>`},
		{"### Heading 3", `<h3 id="heading-3">Heading 3</h3>`},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownCodeBlockWithLanguage(t *testing.T) {
	got := render(t, "```go\nfmt.Println(\"hello\")\n```")
	if !strings.Contains(got, `class="language-go"`) {
		t.Errorf("code block should have language-go class: %q", got)
	}
	if !strings.Contains(got, "fmt.Println(&quot;hello&quot;)") {
		t.Errorf("code block content should be escaped: %q", got)
	}
}

func TestRenderMarkdownExternalLinks(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			"[Go](https://go.dev)",
			`<a href="https://go.dev" target="_blank" rel="noopener noreferrer">Go</a>`,
		},
		{
			"[About](/about/)",
			`<a href="/about/">About</a>`,
		},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("RenderMarkdown(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	got := render(t, "<script>alert(1)</script>\n\ntext")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be omitted: %q", got)
	}
}

func TestRenderMarkdownBlanksJavascriptLinks(t *testing.T) {
	got := render(t, "[x](javascript:alert(1))")
	if strings.Contains(got, "javascript:") {
		t.Errorf("dangerous link should be blanked: %q", got)
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("expected GFM table: %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("- one\n- two").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<li>one</li>") {
		t.Errorf("Markdown component output = %q", buf.String())
	}
}

func TestIsExternal(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"https://example.com", true},
		{"HTTP://example.com/x", true},
		{"/projects/", false},
		{"#top", false},
		{"mailto:a@b.c", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		if got := IsExternal(tt.input); got != tt.expected {
			t.Errorf("IsExternal(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
