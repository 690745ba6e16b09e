package folio

import (
	"sync"
	"time"

	"github.com/fulfill3d/folio/blocks"
)

// PostCache is an in-memory TTL cache over any Source. Each load takes a
// snapshot of the published posts, indexes them by slug and renders their
// blocks once, so pages and the fragments API share the work.
type PostCache struct {
	mu      sync.RWMutex
	snap    *snapshot
	fetched time.Time
	ttl     time.Duration
	source  Source
	now     func() time.Time
}

type snapshot struct {
	posts  []Post
	tags   []string
	bySlug map[string]int
	frags  [][]blocks.Fragment // parallel to posts
}

func newSnapshot(posts []Post, tags []string) *snapshot {
	s := &snapshot{
		posts:  posts,
		tags:   tags,
		bySlug: make(map[string]int, len(posts)),
		frags:  make([][]blocks.Fragment, len(posts)),
	}
	for i, p := range posts {
		s.bySlug[p.Slug] = i
		s.frags[i] = blocks.Render(p.Blocks)
	}
	return s
}

// NewPostCache creates a PostCache backed by the given Source.
func NewPostCache(src Source, ttl time.Duration) *PostCache {
	return &PostCache{source: src, ttl: ttl, now: time.Now}
}

// Invalidate drops the snapshot so the next read reloads from the source.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *PostCache) fresh() bool {
	return c.snap != nil && c.now().Sub(c.fetched) < c.ttl
}

// current returns a fresh snapshot, reloading under the write lock when the
// cached one has expired.
func (c *PostCache) current() (*snapshot, error) {
	c.mu.RLock()
	if c.fresh() {
		s := c.snap
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return c.snap, nil
	}
	posts, err := c.source.ListPosts("")
	if err != nil {
		return nil, err
	}
	tags, err := c.source.ListTags()
	if err != nil {
		return nil, err
	}
	c.snap = newSnapshot(posts, tags)
	c.fetched = c.now()
	return c.snap, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(tag string) ([]Post, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	normalized := normalizeTag(tag)
	if normalized == "" {
		return s.posts, nil
	}
	var filtered []Post
	for _, p := range s.posts {
		if hasTag(p, normalized) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags from published posts.
func (c *PostCache) ListTags() ([]string, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.tags, nil
}

// GetPost returns a single published post by slug.
func (c *PostCache) GetPost(slug string) (Post, error) {
	post, _, err := c.GetRendered(slug)
	return post, err
}

// GetRendered returns a published post together with its rendered
// fragments. The fragment slice is shared; callers must not modify it.
func (c *PostCache) GetRendered(slug string) (Post, []blocks.Fragment, error) {
	s, err := c.current()
	if err != nil {
		return Post{}, nil, err
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return Post{}, nil, ErrNotFound
	}
	return s.posts[i], s.frags[i], nil
}
