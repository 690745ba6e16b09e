package folio

import _ "embed"

// seedPosts is the posts document served when neither DatabasePath nor
// PostsPath is configured.
//
//go:embed seed/posts.json
var seedPosts []byte

// seedProfile is the site profile used when ProfilePath is empty.
//
//go:embed seed/profile.yaml
var seedProfile []byte

// SeedPosts decodes the embedded sample posts document.
func SeedPosts() ([]Post, []PostIssue, error) {
	return DecodePosts(seedPosts)
}
