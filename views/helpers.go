package views

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/fulfill3d/folio"
)

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "inline-flex items-center rounded border border-ink dark:border-white/30 bg-stone-100 dark:bg-neutral-700 px-2.5 py-1 text-[11px] font-semibold uppercase tracking-[0.12em] hover:-translate-y-0.5 hover:shadow-sm transition"
	if active {
		base += " bg-ink dark:bg-white text-white dark:text-ink"
	}
	return base
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg folio.SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      folio.BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	return marshalJsonLD(data)
}

// OrganizationJsonLD describes the company with its social profiles as sameAs.
func OrganizationJsonLD(cfg folio.SiteConfig, c folio.Company) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     c.Name,
		"url":      folio.BuildURL(cfg.URL),
	}
	if c.Mission != "" {
		data["slogan"] = c.Mission
	}
	if len(c.Social) > 0 {
		same := make([]string, len(c.Social))
		for i, s := range c.Social {
			same[i] = s.URL
		}
		data["sameAs"] = same
	}
	return marshalJsonLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg folio.SiteConfig, post folio.Post) string {
	postURL := folio.BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.Date,
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	author := post.Author
	if author == "" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = folio.JoinTags(post.Tags)
	}
	return marshalJsonLD(data)
}

func marshalJsonLD(data map[string]interface{}) string {
	// json.Marshal escapes <, > and &, so the result is safe inside <script>.
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// htmlWriter accumulates the first write error so page bodies read top to
// bottom without an error check per element.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

// externalLink writes an anchor that opens in a new tab without giving the
// target page a handle on this one.
func (h *htmlWriter) externalLink(href, class string, body func()) {
	h.raw("<a")
	h.attr("href", string(templ.URL(href)))
	if class != "" {
		h.attr("class", class)
	}
	h.raw(` target="_blank" rel="noopener noreferrer">`)
	body()
	h.raw("</a>")
}

func (h *htmlWriter) tags(tags []string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<div class="flex flex-wrap gap-2">`)
	for _, t := range tags {
		h.raw(`<span class="bg-stone-200 dark:bg-neutral-700 text-xs font-semibold px-2 py-0.5 rounded">`)
		h.text(t)
		h.raw("</span>")
	}
	h.raw("</div>")
}

func (h *htmlWriter) social(links []folio.Social) {
	if len(links) == 0 {
		return
	}
	h.raw(`<div class="flex justify-center gap-4 mt-4">`)
	for _, s := range links {
		h.externalLink(s.URL, "social social-"+strings.ToLower(string(s.Platform)), func() {
			h.text(string(s.Platform))
		})
	}
	h.raw("</div>")
}
