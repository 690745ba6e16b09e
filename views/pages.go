// Package views renders folio pages as templ components.
package views

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/fulfill3d/folio"
	"github.com/fulfill3d/folio/markdown"
)

const cardThumbWidth = 480

type pages struct {
	cfg folio.SiteConfig
}

// New returns the default page set for a site configured by cfg.
func New(cfg folio.SiteConfig) folio.ViewFuncs {
	p := pages{cfg: cfg}
	return folio.ViewFuncs{
		Home:        p.home,
		About:       p.about,
		Projects:    p.projects,
		ProjectWiki: p.projectWiki,
		Blog:        p.blog,
		BlogSection: p.blogSection,
		Post:        p.post,
		PostPartial: p.postPartial,
		NotFound:    p.notFound,
		ServerError: p.serverError,
	}
}

// fragment adapts a body writer to templ.Component.
func fragment(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

func (p pages) home(profile folio.Profile, posts []folio.Post, siteURL string) templ.Component {
	c := profile.Company
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="text-center py-12">`)
		h.raw(`<h1 class="text-4xl font-bold mb-4">Welcome to `)
		h.text(c.Name)
		h.raw("</h1>")
		if c.Mission != "" {
			h.raw(`<p class="text-lg italic mb-6">`)
			h.text(c.Mission)
			h.raw("</p>")
		}
		h.raw(`<a href="/projects/" class="inline-block rounded bg-ink text-white px-4 py-2">See our projects</a>`)
		h.raw("</section>")

		h.raw(`<section><h2 class="text-2xl font-bold mb-4">Latest posts</h2>`)
		p.postList(h, posts)
		h.raw(`<p class="mt-4"><a href="/blog/">All posts</a></p></section>`)
	})
	meta := folio.PageMeta{URL: folio.BuildURL(siteURL), OGType: "website"}
	return layout(p.cfg, meta, body, WebsiteJsonLD(p.cfg), OrganizationJsonLD(p.cfg, c))
}

func (p pages) about(profile folio.Profile) templ.Component {
	c := profile.Company
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="company bg-white dark:bg-neutral-800 shadow-lg rounded-lg p-6 mb-8 text-center">`)
		if c.LogoURL != "" {
			h.raw(`<img class="mx-auto w-32 h-32 rounded-lg mb-4"`)
			h.attr("src", folio.ThumbURL(c.LogoURL, 256))
			h.attr("alt", c.Name)
			h.raw(">")
		}
		h.raw(`<h1 class="text-3xl font-bold mb-4">`)
		h.text(c.Name)
		h.raw("</h1>")
		if c.Mission != "" {
			h.raw(`<p class="italic mb-4">`)
			h.text(c.Mission)
			h.raw("</p>")
		}
		for _, d := range c.Descriptions {
			h.raw(`<p class="leading-relaxed mb-4">`)
			h.text(d)
			h.raw("</p>")
		}
		h.tags(c.Tags)
		h.social(c.Social)
		h.raw("</section>")

		if len(profile.People) > 0 {
			h.raw(`<section class="people grid gap-6 md:grid-cols-2">`)
			for _, person := range profile.People {
				h.raw(`<article class="person bg-white dark:bg-neutral-800 shadow-lg rounded-lg p-6 text-center">`)
				if person.ImageURL != "" {
					h.raw(`<img class="mx-auto w-32 h-32 rounded-full mb-4"`)
					h.attr("src", folio.ThumbURL(person.ImageURL, 256))
					h.attr("alt", person.Name)
					h.raw(">")
				}
				h.raw(`<h2 class="text-2xl font-bold mb-2">`)
				h.text(person.Name)
				h.raw("</h2>")
				if person.Title != "" {
					h.raw(`<h3 class="text-lg mb-4">`)
					h.text(person.Title)
					h.raw("</h3>")
				}
				h.raw(`<p class="leading-relaxed mb-4">`)
				h.text(person.Description)
				h.raw("</p>")
				h.tags(person.Tags)
				h.social(person.Social)
				h.raw("</article>")
			}
			h.raw("</section>")
		}
	})
	meta := folio.PageMeta{Title: "About", Description: c.Mission, URL: folio.BuildURL(p.cfg.URL, "about")}
	return layout(p.cfg, meta, body, OrganizationJsonLD(p.cfg, c))
}

func (p pages) projects(projects []folio.Project, activeTag string) templ.Component {
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1 class="text-3xl font-bold mb-6">Projects</h1>`)
		if activeTag != "" {
			h.raw(`<p class="mb-4">Tagged <span`)
			h.attr("class", TagClass(true))
			h.raw(">")
			h.text(activeTag)
			h.raw(`</span> <a href="/projects/">clear</a></p>`)
		}
		if len(projects) == 0 {
			h.raw(`<p>No projects yet.</p>`)
		}
		for _, proj := range projects {
			p.projectCard(h, proj)
		}
	})
	meta := folio.PageMeta{Title: "Projects", URL: folio.BuildURL(p.cfg.URL, "projects")}
	return layout(p.cfg, meta, body)
}

func (p pages) projectCard(h *htmlWriter, proj folio.Project) {
	h.raw(`<article class="project-card flex flex-col md:flex-row bg-white dark:bg-neutral-800 shadow-lg rounded-lg p-4 mb-6">`)
	h.raw(`<div class="md:w-1/4"><img class="rounded-lg"`)
	h.attr("src", folio.ThumbURL(proj.ImageURL, cardThumbWidth))
	h.attr("alt", proj.Name)
	h.raw(` loading="lazy"></div>`)

	h.raw(`<div class="md:w-2/4 md:px-4"><h2 class="text-xl font-bold mb-2">`)
	h.text(proj.Name)
	h.raw(`</h2><p class="mb-4">`)
	h.text(proj.Description)
	h.raw("</p>")
	h.raw(`<div class="flex flex-wrap gap-2">`)
	for _, t := range proj.Tags {
		h.raw("<a")
		h.attr("href", "/projects/?tag="+url.QueryEscape(t))
		h.attr("class", TagClass(false))
		h.raw(">")
		h.text(t)
		h.raw("</a>")
	}
	h.raw("</div></div>")

	h.raw(`<div class="md:w-1/4 flex gap-4 items-center justify-end">`)
	if proj.DemoReady && proj.DemoURL != "" {
		h.externalLink(proj.DemoURL, "demo rounded bg-blue-500 text-white px-4 py-2", func() { h.text("Demo") })
	} else {
		h.raw(`<span class="demo rounded bg-stone-400 text-white px-4 py-2 cursor-not-allowed" title="Not Ready">Demo</span>`)
	}
	if proj.WikiReady {
		h.raw("<a")
		h.attr("href", proj.Link())
		h.raw(` class="wiki rounded bg-stone-500 text-white px-4 py-2">Wiki</a>`)
	} else {
		h.raw(`<span class="wiki rounded bg-stone-400 text-white px-4 py-2 cursor-not-allowed" title="Not Ready">Wiki</span>`)
	}
	h.raw("</div></article>")
}

func (p pages) projectWiki(proj folio.Project) templ.Component {
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<nav class="mb-4 text-sm"><a href="/projects/">&larr; Projects</a></nav>`)
		h.raw(`<article class="wiki prose dark:prose-invert">`)
		if !strings.HasPrefix(strings.TrimSpace(proj.Wiki), "# ") {
			h.raw("<h1>")
			h.text(proj.Name)
			h.raw("</h1>")
		}
		h.render(ctx, markdown.Markdown(proj.Wiki))
		h.raw("</article>")
		if proj.DemoReady && proj.DemoURL != "" {
			h.raw(`<p class="mt-6">`)
			h.externalLink(proj.DemoURL, "demo", func() { h.text("Open the demo") })
			h.raw("</p>")
		}
	})
	meta := folio.PageMeta{
		Title:       proj.Name,
		Description: proj.Description,
		URL:         folio.BuildURL(p.cfg.URL, "projects", proj.ID.String()),
		OGType:      "article",
	}
	return layout(p.cfg, meta, body)
}

func (p pages) blog(posts []folio.Post, activeTag string, tags []string, siteURL string) templ.Component {
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1 class="text-3xl font-bold mb-6">Blog</h1>`)
		h.render(ctx, p.blogSection(posts, activeTag, tags))
	})
	meta := folio.PageMeta{Title: "Blog", URL: folio.BuildURL(siteURL, "blog")}
	return layout(p.cfg, meta, body, WebsiteJsonLD(p.cfg))
}

// blogSection is the tag bar and post list swapped in place by htmx when a
// tag is picked.
func (p pages) blogSection(posts []folio.Post, activeTag string, tags []string) templ.Component {
	return fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section id="blog-section">`)
		if len(tags) > 0 {
			h.raw(`<div class="flex flex-wrap gap-2 mb-6">`)
			p.tagLink(h, "", "All", activeTag == "")
			for _, t := range tags {
				p.tagLink(h, t, t, strings.EqualFold(t, activeTag))
			}
			h.raw("</div>")
		}
		p.postList(h, posts)
		h.raw("</section>")
	})
}

func (p pages) tagLink(h *htmlWriter, tag, label string, active bool) {
	href := "/blog/"
	if tag != "" {
		href += "?tag=" + url.QueryEscape(tag)
	}
	partial := href + "?partial=blog"
	if tag != "" {
		partial = href + "&partial=blog"
	}
	h.raw("<a")
	h.attr("href", href)
	h.attr("hx-get", partial)
	h.raw(` hx-target="#blog-section" hx-swap="outerHTML" hx-push-url="`)
	h.text(href)
	h.raw(`"`)
	h.attr("class", TagClass(active))
	h.raw(">")
	h.text(label)
	h.raw("</a>")
}

func (p pages) postList(h *htmlWriter, posts []folio.Post) {
	if len(posts) == 0 {
		h.raw(`<p>No posts yet.</p>`)
		return
	}
	h.raw(`<ul class="post-list space-y-6">`)
	for _, post := range posts {
		h.raw(`<li><article><h3 class="text-xl font-semibold"><a`)
		h.attr("href", post.Link())
		h.raw(">")
		h.text(post.Title)
		h.raw(`</a></h3><p class="text-sm text-stone-500"><time`)
		h.attr("datetime", post.Date)
		h.raw(">")
		h.text(post.Date)
		h.raw("</time>")
		if post.Author != "" {
			h.raw(" &middot; ")
			h.text(post.Author)
		}
		h.raw("</p>")
		if post.Excerpt != "" {
			h.raw("<p>")
			h.text(post.Excerpt)
			h.raw("</p>")
		}
		h.raw("</article></li>")
	}
	h.raw("</ul>")
}

func (p pages) postArticle(post folio.Post, content templ.Component, related []folio.Post) templ.Component {
	return fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<article class="post prose dark:prose-invert" id="post">`)
		h.raw(`<header class="mb-6"><h1 class="text-4xl font-bold">`)
		h.text(post.Title)
		h.raw(`</h1><p class="text-sm text-stone-500"><time`)
		h.attr("datetime", post.Date)
		h.raw(">")
		h.text(post.Date)
		h.raw("</time>")
		if post.Author != "" {
			h.raw(" &middot; ")
			h.text(post.Author)
		}
		h.raw("</p>")
		if len(post.Tags) > 0 {
			h.raw(`<div class="flex flex-wrap gap-2 mt-2">`)
			for _, t := range post.Tags {
				h.raw("<a")
				h.attr("href", "/blog/?tag="+url.QueryEscape(t))
				h.attr("class", TagClass(false))
				h.raw(">")
				h.text(t)
				h.raw("</a>")
			}
			h.raw("</div>")
		}
		h.raw("</header>")
		if post.Image != "" {
			h.raw(`<img class="rounded-lg mb-6"`)
			h.attr("src", post.Image)
			h.attr("alt", post.Title)
			h.raw(">")
		}
		h.raw(`<div class="post-body">`)
		h.render(ctx, content)
		h.raw("</div></article>")

		if len(related) > 0 {
			h.raw(`<aside class="related mt-12"><h2 class="text-xl font-bold mb-4">Related posts</h2>`)
			p.postList(h, related)
			h.raw("</aside>")
		}
	})
}

func (p pages) post(post folio.Post, content templ.Component, related []folio.Post, siteURL string) templ.Component {
	meta := folio.PageMeta{
		Title:       post.Title,
		Description: post.Excerpt,
		URL:         folio.BuildURL(siteURL, "blog", post.Slug),
		OGType:      "article",
		Keywords:    folio.JoinTags(post.Tags),
	}
	return layout(p.cfg, meta, p.postArticle(post, content, related), BlogPostingJsonLD(p.cfg, post))
}

func (p pages) postPartial(post folio.Post, content templ.Component, related []folio.Post, siteURL string) templ.Component {
	return p.postArticle(post, content, related)
}

func (p pages) notFound() templ.Component {
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="text-center py-16"><h1 class="text-4xl font-bold mb-4">Page not found</h1>`)
		h.raw(`<p class="mb-6">The page you are looking for does not exist.</p><a href="/">Back home</a></section>`)
	})
	return layout(p.cfg, folio.PageMeta{Title: "Not found"}, body)
}

func (p pages) serverError() templ.Component {
	body := fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="text-center py-16"><h1 class="text-4xl font-bold mb-4">Something went wrong</h1>`)
		h.raw(`<p class="mb-6">Please try again in a moment.</p><a href="/">Back home</a></section>`)
	})
	return layout(p.cfg, folio.PageMeta{Title: "Error"}, body)
}
