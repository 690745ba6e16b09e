package folio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfill3d/folio/blocks"
)

const postsDoc = `[
  {
    "id": 1,
    "title": "Queue intake",
    "slug": "queue-intake",
    "author": "Ops",
    "tags": ["Messaging", " ", "C#"],
    "datePublished": "2024-09-13",
    "excerpt": "Orders through a queue.",
    "contentBlocks": [
      {"type": "heading", "data": {"text": "Introduction", "level": 1}},
      {"type": "paragraph", "data": {"text": "Bursts in, steady out."}},
      {"type": "code", "data": {"language": "csharp", "code": "await sender.SendMessageAsync(msg);"}},
      {"type": "hyperlink", "data": {"href": "https://example.com", "text": "Docs"}}
    ]
  },
  {
    "id": 2,
    "title": "Mixed blocks",
    "slug": "mixed-blocks",
    "datePublished": "2024-10-01",
    "status": "draft",
    "contentBlocks": [
      {"type": "paragraph", "data": {"text": "first"}},
      {"type": "carousel", "data": {"images": []}},
      "not an object",
      {"type": "hyperlink", "data": {"href": "javascript:alert(1)", "text": "bad"}},
      {"type": "paragraph", "data": {"text": "last"}}
    ]
  },
  {
    "id": 3,
    "title": "Missing fields"
  },
  {
    "id": 4,
    "title": "Bad date",
    "slug": "bad-date",
    "datePublished": "13/09/2024",
    "contentBlocks": []
  },
  {
    "id": 5,
    "title": "Duplicate",
    "slug": "queue-intake",
    "datePublished": "2024-09-14",
    "contentBlocks": []
  }
]`

func TestDecodePosts(t *testing.T) {
	posts, issues, err := DecodePosts([]byte(postsDoc))
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "queue-intake", first.Slug)
	assert.Equal(t, StatusPublished, first.Status, "status defaults to published")
	assert.Equal(t, []string{"Messaging", "C#"}, first.Tags)
	want := []blocks.Block{
		blocks.Heading{Text: "Introduction", Level: 1},
		blocks.Paragraph{Text: "Bursts in, steady out."},
		blocks.Code{Language: "csharp", Code: "await sender.SendMessageAsync(msg);"},
		blocks.Hyperlink{Href: "https://example.com", Text: "Docs"},
	}
	if diff := cmp.Diff(want, first.Blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}

	mixed := posts[1]
	assert.Equal(t, StatusDraft, mixed.Status)
	require.Len(t, mixed.Blocks, 2)
	assert.Equal(t, blocks.Paragraph{Text: "first"}, mixed.Blocks[0])
	assert.Equal(t, blocks.Paragraph{Text: "last"}, mixed.Blocks[1])

	var blockIssues, postIssues []PostIssue
	for _, i := range issues {
		if i.Block != nil {
			blockIssues = append(blockIssues, i)
		} else {
			postIssues = append(postIssues, i)
		}
	}

	require.Len(t, blockIssues, 3)
	for _, i := range blockIssues {
		assert.Equal(t, "mixed-blocks", i.Slug)
		assert.Equal(t, 1, i.Post)
	}
	assert.Equal(t, 1, blockIssues[0].Block.Index)
	assert.ErrorIs(t, blockIssues[0], blocks.ErrUnknownType)
	assert.Equal(t, 2, blockIssues[1].Block.Index)
	assert.Equal(t, 3, blockIssues[2].Block.Index)
	assert.ErrorIs(t, blockIssues[2], blocks.ErrUnsafeHref)

	require.Len(t, postIssues, 3)
	assert.Equal(t, 2, postIssues[0].Post)
	assert.ErrorIs(t, postIssues[0], ErrInvalidPost)
	assert.Equal(t, "bad-date", postIssues[1].Slug)
	assert.ErrorIs(t, postIssues[1], ErrInvalidPost)
	assert.Equal(t, 4, postIssues[2].Post)
	assert.ErrorIs(t, postIssues[2], ErrDuplicateSlug)
}

func TestDecodePostsRejectsNonArray(t *testing.T) {
	_, _, err := DecodePosts([]byte(`{"id": 1}`))
	assert.Error(t, err)
}

func TestDecodePostsDerivesSlugFromTitle(t *testing.T) {
	doc := `[
	  {"id": 1, "title": "Queue-Backed Order Intake!", "datePublished": "2024-09-13", "contentBlocks": []},
	  {"id": 2, "title": "???", "datePublished": "2024-09-14", "contentBlocks": []}
	]`
	posts, issues, err := DecodePosts([]byte(doc))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "queue-backed-order-intake", posts[0].Slug)

	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Post)
	assert.ErrorIs(t, issues[0], ErrInvalidPost)
}

func TestDecodePostsRejectsFloatID(t *testing.T) {
	doc := `[{"id": 1.0, "title": "Float id", "slug": "float-id", "datePublished": "2024-09-13", "contentBlocks": []}]`
	posts, issues, err := DecodePosts([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, posts)
	require.Len(t, issues, 1)
	assert.Equal(t, "float-id", issues[0].Slug)
	assert.ErrorIs(t, issues[0], ErrInvalidPost)
}

func TestPostIssueError(t *testing.T) {
	named := PostIssue{Post: 3, Slug: "a-post", Err: ErrDuplicateSlug}
	assert.Equal(t, "post a-post: duplicate slug", named.Error())

	unnamed := PostIssue{Post: 3, Err: ErrInvalidPost}
	assert.Equal(t, "post #3: invalid post", unnamed.Error())

	blockIssue := blocks.Issue{Index: 2, Type: "video", Err: blocks.ErrUnknownType}
	withBlock := PostIssue{Post: 0, Slug: "p", Block: &blockIssue}
	assert.Contains(t, withBlock.Error(), "post p: block 2 (video)")
	assert.True(t, errors.Is(withBlock, blocks.ErrUnknownType))
}

func TestEncodePostsRoundTrip(t *testing.T) {
	posts, _, err := DecodePosts([]byte(postsDoc))
	require.NoError(t, err)

	data, err := EncodePosts(posts)
	require.NoError(t, err)

	again, issues, err := DecodePosts(data)
	require.NoError(t, err)
	assert.Empty(t, issues)
	if diff := cmp.Diff(posts, again); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestDecodePostsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(path, []byte(postsDoc), 0o644))

	posts, _, err := DecodePostsFile(path)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, _, err = DecodePostsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeedPostsDecode(t *testing.T) {
	posts, issues, err := SeedPosts()
	require.NoError(t, err)
	require.NotEmpty(t, posts)

	// The sample deliberately carries one unsupported block.
	require.Len(t, issues, 1)
	assert.Equal(t, "slicer-profiles-as-code", issues[0].Slug)
	assert.ErrorIs(t, issues[0], blocks.ErrUnknownType)
}
