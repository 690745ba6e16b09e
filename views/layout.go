package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/fulfill3d/folio"
)

type navItem struct {
	href  string
	label string
}

var nav = []navItem{
	{"/", "Home"},
	{"/about/", "About"},
	{"/projects/", "Projects"},
	{"/blog/", "Blog"},
}

// layout wraps body in the document shell: head metadata, navigation,
// theme toggle and footer. jsonLD blocks are emitted verbatim in <head>.
func layout(cfg folio.SiteConfig, meta folio.PageMeta, body templ.Component, jsonLD ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := folio.StateFromContext(ctx)
		h := &htmlWriter{w: w}

		title := cfg.Name
		if meta.Title != "" {
			title = meta.Title + " | " + cfg.Name
		}
		description := meta.Description
		if description == "" {
			description = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		h.raw("<!doctype html><html lang=\"en\"")
		if state.Theme == folio.ThemeDark {
			h.raw(` class="dark"`)
		}
		h.raw("><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.raw("<title>")
		h.text(title)
		h.raw("</title>")
		h.raw("<meta name=\"description\"")
		h.attr("content", description)
		h.raw(">")
		if meta.Keywords != "" {
			h.raw("<meta name=\"keywords\"")
			h.attr("content", meta.Keywords)
			h.raw(">")
		}
		if meta.URL != "" {
			h.raw("<link rel=\"canonical\"")
			h.attr("href", meta.URL)
			h.raw("><meta property=\"og:url\"")
			h.attr("content", meta.URL)
			h.raw(">")
		}
		h.raw("<meta property=\"og:title\"")
		h.attr("content", title)
		h.raw("><meta property=\"og:type\"")
		h.attr("content", ogType)
		h.raw("><meta property=\"og:description\"")
		h.attr("content", description)
		h.raw(">")
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"`)
		h.attr("title", cfg.Name)
		h.raw(">")
		h.raw(`<link rel="stylesheet" href="/public/style.css"><link rel="stylesheet" href="/public/chroma.css">`)
		h.raw(`<script src="/public/htmx.min.js" defer></script>`)
		for _, ld := range jsonLD {
			h.raw(`<script type="application/ld+json">`)
			h.raw(ld)
			h.raw("</script>")
		}
		h.raw("</head><body class=\"bg-stone-50 dark:bg-neutral-900 text-ink dark:text-stone-100\">")

		h.raw(`<header class="border-b border-ink/10"><nav class="mx-auto max-w-4xl flex items-center gap-6 px-4 py-4">`)
		h.raw(`<a href="/" class="font-bold">`)
		h.text(cfg.Name)
		h.raw("</a>")
		for _, item := range nav {
			h.raw("<a")
			h.attr("href", item.href)
			if isActive(state.Path, item.href) {
				h.raw(` aria-current="page" class="underline"`)
			}
			h.raw(">")
			h.text(item.label)
			h.raw("</a>")
		}
		h.raw(`<form method="post" action="/theme/" class="ml-auto">`)
		h.raw(`<input type="hidden" name="_csrf"`)
		h.attr("value", state.CSRFToken)
		h.raw(`><button type="submit" class="theme-toggle">`)
		if state.Theme == folio.ThemeDark {
			h.text("Light mode")
		} else {
			h.text("Dark mode")
		}
		h.raw("</button></form></nav></header>")

		h.raw(`<main class="mx-auto max-w-4xl px-4 py-8">`)
		h.render(ctx, body)
		h.raw("</main>")

		h.raw(`<footer class="mx-auto max-w-4xl px-4 py-8 text-sm text-stone-500">`)
		h.raw("<p>&copy; ")
		h.text(cfg.Name)
		h.raw(` &middot; <a href="/feed.xml">RSS</a></p></footer></body></html>`)
		return h.err
	})
}

func isActive(path, href string) bool {
	if href == "/" {
		return path == "/"
	}
	return len(path) >= len(href) && path[:len(href)] == href
}
