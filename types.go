package folio

import (
	"github.com/google/uuid"

	"github.com/fulfill3d/folio/blocks"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Post is a blog post. Its body is the ordered Blocks sequence, which is
// display order. Posts are built by a Source and not modified afterwards.
type Post struct {
	ID      int
	Title   string
	Slug    string
	Author  string
	Tags    []string
	Date    string // YYYY-MM-DD
	Excerpt string
	Image   string
	Status  PostStatus
	Blocks  []blocks.Block
}

// Link is the site-relative URL of the post page.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// Published reports whether the post is visible on the site.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// SocialPlatform names a supported social network.
type SocialPlatform string

const (
	PlatformLinkedIn SocialPlatform = "LinkedIn"
	PlatformYouTube  SocialPlatform = "YouTube"
	PlatformTwitter  SocialPlatform = "Twitter"
	PlatformGitHub   SocialPlatform = "GitHub"
)

// Social is a link to a profile on a social platform.
type Social struct {
	Platform SocialPlatform `yaml:"platform"`
	URL      string         `yaml:"url"`
}

// Company is the organisation shown on the home and about pages.
type Company struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"companyName"`
	Mission      string   `yaml:"mission"`
	Descriptions []string `yaml:"descriptions"`
	Tags         []string `yaml:"tags"`
	LogoURL      string   `yaml:"logoUrl"`
	Social       []Social `yaml:"socialMedia"`
}

// Person is a team member profile.
type Person struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	ImageURL    string   `yaml:"imageUrl"`
	Social      []Social `yaml:"socialMedia"`
}

// Project is a showcase entry. Wiki holds Markdown rendered on the project
// page once WikiReady is set.
type Project struct {
	ID          uuid.UUID `yaml:"-"`
	RawID       string    `yaml:"uuid"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Tags        []string  `yaml:"tags"`
	ImageURL    string    `yaml:"imageUrl"`
	DemoURL     string    `yaml:"demoUrl"`
	DemoReady   bool      `yaml:"isDemoReady"`
	WikiReady   bool      `yaml:"isWikiReady"`
	Wiki        string    `yaml:"wiki"`
}

// Link is the site-relative URL of the project wiki page.
func (p Project) Link() string {
	return "/projects/" + p.ID.String() + "/"
}

// Profile is everything the about and projects pages show.
type Profile struct {
	Company  Company   `yaml:"company"`
	People   []Person  `yaml:"people"`
	Projects []Project `yaml:"projects"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Keywords    string // comma-separated, omitted when empty
}
