package folio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fulfill3d/folio/blocks"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidPost   = errors.New("invalid post")
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// PostIssue is a problem found while decoding a posts document. Block is
// non-nil when a single content block was dropped; otherwise the whole post
// at index Post was skipped.
type PostIssue struct {
	Post  int
	Slug  string
	Block *blocks.Issue
	Err   error
}

func (i PostIssue) Error() string {
	name := i.Slug
	if name == "" {
		name = fmt.Sprintf("#%d", i.Post)
	}
	if i.Block != nil {
		return fmt.Sprintf("post %s: %v", name, *i.Block)
	}
	return fmt.Sprintf("post %s: %v", name, i.Err)
}

func (i PostIssue) Unwrap() error {
	if i.Block != nil {
		return *i.Block
	}
	return i.Err
}

// rawPost is the JSON shape of a post in a posts document.
type rawPost struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Author        string            `json:"author,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	DatePublished string            `json:"datePublished"`
	Excerpt       string            `json:"excerpt,omitempty"`
	Image         string            `json:"image,omitempty"`
	Status        PostStatus        `json:"status"`
	ContentBlocks []json.RawMessage `json:"contentBlocks"`
}

var postSchema = mustSchema(`{
	"type": "object",
	"required": ["id", "title", "datePublished", "contentBlocks"],
	"properties": {
		"id": {"type": "integer"},
		"title": {"type": "string", "minLength": 1},
		"slug": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
		"author": {"type": "string"},
		"tags": {"type": "array", "items": {"type": "string"}},
		"datePublished": {"type": "string"},
		"excerpt": {"type": "string"},
		"image": {"type": "string"},
		"status": {"enum": ["draft", "published"]},
		"contentBlocks": {"type": "array"}
	}
}`)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("folio: compile schema: %v", err))
	}
	return schema
}

// DecodePosts parses a JSON array of posts. Posts failing validation are
// skipped and malformed blocks are dropped from their post; both are
// reported as issues. The error is non-nil only when data is not a JSON array.
func DecodePosts(data []byte) ([]Post, []PostIssue, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]Post, 0, len(items))
	var issues []PostIssue
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		post, blockIssues, err := decodePost(item)
		if err != nil {
			issues = append(issues, PostIssue{Post: i, Slug: post.Slug, Err: err})
			continue
		}
		if _, dup := seen[post.Slug]; dup {
			issues = append(issues, PostIssue{Post: i, Slug: post.Slug, Err: ErrDuplicateSlug})
			continue
		}
		seen[post.Slug] = struct{}{}
		for j := range blockIssues {
			issues = append(issues, PostIssue{Post: i, Slug: post.Slug, Block: &blockIssues[j]})
		}
		posts = append(posts, post)
	}
	return posts, issues, nil
}

// DecodePostsFile reads and decodes the posts document at path.
func DecodePostsFile(path string) ([]Post, []PostIssue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read posts: %w", err)
	}
	return DecodePosts(data)
}

func decodePost(item json.RawMessage) (Post, []blocks.Issue, error) {
	res, err := postSchema.Validate(gojsonschema.NewBytesLoader(item))
	if err != nil {
		return Post{}, nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	var raw rawPost
	// Best effort so the issue can name the slug.
	_ = json.Unmarshal(item, &raw)
	if !res.Valid() {
		msgs := make([]string, len(res.Errors()))
		for i, e := range res.Errors() {
			msgs[i] = e.String()
		}
		return Post{Slug: raw.Slug}, nil, fmt.Errorf("%w: %s", ErrInvalidPost, strings.Join(msgs, "; "))
	}
	// The schema passes integral floats such as 1.0 that do not fit the Go shape.
	if err := json.Unmarshal(item, &raw); err != nil {
		return Post{Slug: raw.Slug}, nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	if raw.Slug == "" {
		raw.Slug = Slugify(raw.Title)
		if raw.Slug == "" {
			return Post{}, nil, fmt.Errorf("%w: no slug and title %q has no slug characters", ErrInvalidPost, raw.Title)
		}
	}
	if _, err := time.Parse(dateLayout, raw.DatePublished); err != nil {
		return Post{Slug: raw.Slug}, nil, fmt.Errorf("%w: datePublished must be YYYY-MM-DD", ErrInvalidPost)
	}
	if raw.Status == "" {
		raw.Status = StatusPublished
	}

	// A block that is not even a {type, data} object becomes an untyped raw
	// block, so Parse reports it at its own index.
	rawBlocks := make([]blocks.RawBlock, len(raw.ContentBlocks))
	for i, rb := range raw.ContentBlocks {
		if err := json.Unmarshal(rb, &rawBlocks[i]); err != nil {
			rawBlocks[i] = blocks.RawBlock{}
		}
	}
	body, issues := blocks.Parse(rawBlocks)
	return Post{
		ID:      raw.ID,
		Title:   raw.Title,
		Slug:    raw.Slug,
		Author:  raw.Author,
		Tags:    FilterEmpty(raw.Tags),
		Date:    raw.DatePublished,
		Excerpt: raw.Excerpt,
		Image:   raw.Image,
		Status:  raw.Status,
		Blocks:  body,
	}, issues, nil
}

// EncodePosts writes posts back into the document shape DecodePosts reads.
func EncodePosts(posts []Post) ([]byte, error) {
	out := make([]rawPost, 0, len(posts))
	for _, p := range posts {
		rawBlocks, err := blocks.ToRaw(p.Blocks)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", p.Slug, err)
		}
		body := make([]json.RawMessage, len(rawBlocks))
		for i, rb := range rawBlocks {
			if body[i], err = json.Marshal(rb); err != nil {
				return nil, fmt.Errorf("post %s: %w", p.Slug, err)
			}
		}
		out = append(out, rawPost{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			Author:        p.Author,
			Tags:          p.Tags,
			DatePublished: p.Date,
			Excerpt:       p.Excerpt,
			Image:         p.Image,
			Status:        p.Status,
			ContentBlocks: body,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
