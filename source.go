package folio

import (
	"database/sql"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// Source supplies published posts. ListPosts is ordered by date, newest first.
type Source interface {
	ListPosts(tag string) ([]Post, error)
	ListTags() ([]string, error)
	GetPost(slug string) (Post, error)
}

// MemorySource serves posts held in memory, typically decoded from a JSON
// posts document at startup.
type MemorySource struct {
	posts []Post // date descending, drafts included
}

// NewMemorySource returns a source over posts. The slice is copied and
// sorted by date descending; ties keep their document order.
func NewMemorySource(posts []Post) *MemorySource {
	sorted := make([]Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return &MemorySource{posts: sorted}
}

// ListPosts returns published posts, optionally filtered by tag.
func (m *MemorySource) ListPosts(tag string) ([]Post, error) {
	normalized := normalizeTag(tag)
	var out []Post
	for _, p := range m.posts {
		if !p.Published() {
			continue
		}
		if normalized != "" && !hasTag(p, normalized) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (m *MemorySource) ListTags() ([]string, error) {
	set := make(map[string]struct{})
	for _, p := range m.posts {
		if !p.Published() {
			continue
		}
		for _, t := range p.Tags {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	return sortedKeys(set), nil
}

// GetPost returns a single published post by slug.
func (m *MemorySource) GetPost(slug string) (Post, error) {
	p, err := m.GetPostAny(slug)
	if err != nil || !p.Published() {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// GetPostAny returns a post by slug regardless of its status.
func (m *MemorySource) GetPostAny(slug string) (Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// ListAllPosts returns every post, drafts included.
func (m *MemorySource) ListAllPosts() ([]Post, error) {
	out := make([]Post, len(m.posts))
	copy(out, m.posts)
	return out, nil
}

func hasTag(p Post, normalized string) bool {
	for _, t := range p.Tags {
		if normalizeTag(t) == normalized {
			return true
		}
	}
	return false
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
