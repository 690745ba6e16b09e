package folio

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/fulfill3d/folio/blocks"
)

// Store is a SQLite-backed post catalog. Posts are written by ImportPosts and
// read through the Source methods; content blocks are kept as their JSON
// document form and re-validated on every read.
type Store struct {
	db *sql.DB

	// OnIssue, when set, receives every block dropped while reading a post.
	OnIssue func(PostIssue)
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read while `folio import` writes; busy_timeout makes
	// the writer wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    id INTEGER NOT NULL,
    title TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'published',
    blocks TEXT NOT NULL,
    tag_keys TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS posts_status_date ON posts (status, date DESC);
`)
	if err != nil {
		return err
	}
	// Catalogs written before tag_keys existed kept lowercased ",a,b," tags,
	// which is already the key format.
	if _, err := s.db.Exec(`ALTER TABLE posts ADD COLUMN tag_keys TEXT NOT NULL DEFAULT '';`); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return nil
		}
		return err
	}
	_, err = s.db.Exec(`UPDATE posts SET tag_keys = tags WHERE tag_keys = ''`)
	return err
}

const postColumns = `slug, id, title, author, date, tags, excerpt, image, status, blocks`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanPost(row rowScanner) (Post, error) {
	var p Post
	var tags, status, body string
	if err := row.Scan(&p.Slug, &p.ID, &p.Title, &p.Author, &p.Date, &tags, &p.Excerpt, &p.Image, &status, &body); err != nil {
		return Post{}, err
	}
	p.Tags = decodeTags(tags)
	p.Status = PostStatus(status)

	parsed, issues, err := blocks.Decode([]byte(body))
	if err != nil {
		return Post{}, fmt.Errorf("post %s: %w", p.Slug, err)
	}
	p.Blocks = parsed
	if s.OnIssue != nil {
		for i := range issues {
			s.OnIssue(PostIssue{Slug: p.Slug, Block: &issues[i]})
		}
	}
	return p, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := s.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns all published posts ordered by date descending.
// If tag is non-empty, results are filtered to posts containing that tag.
func (s *Store) ListPosts(tag string) ([]Post, error) {
	if tag == "" {
		return s.queryPosts(`SELECT `+postColumns+` FROM posts WHERE status = ? ORDER BY date DESC, id DESC`, StatusPublished)
	}
	return s.queryPosts(`SELECT `+postColumns+` FROM posts WHERE status = ? AND instr(tag_keys, ',' || ? || ',') > 0 ORDER BY date DESC, id DESC`,
		StatusPublished, normalizeTag(tag))
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM posts WHERE status = ?`, StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range decodeTags(tags) {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortedKeys(set), nil
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(slug string) (Post, error) {
	return s.scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = ?`, slug, StatusPublished))
}

// GetPostAny returns a post by slug regardless of its status.
func (s *Store) GetPostAny(slug string) (Post, error) {
	return s.scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

// ListAllPosts returns every post (published and drafts) ordered by date descending.
func (s *Store) ListAllPosts() ([]Post, error) {
	return s.queryPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY date DESC, id DESC`)
}

// ImportPosts upserts posts in a single transaction. When replace is true
// the catalog is emptied first so it mirrors the imported document exactly.
func (s *Store) ImportPosts(posts []Post, replace bool) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if replace {
		if _, err = tx.Exec(`DELETE FROM posts`); err != nil {
			return err
		}
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO posts (` + postColumns + `, tag_keys) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		body, merr := blocks.Marshal(p.Blocks)
		if merr != nil {
			err = fmt.Errorf("post %s: %w", p.Slug, merr)
			return err
		}
		status := p.Status
		if status == "" {
			status = StatusPublished
		}
		tags, merr := encodeTags(p.Tags)
		if merr != nil {
			err = fmt.Errorf("post %s: %w", p.Slug, merr)
			return err
		}
		if _, err = stmt.Exec(p.Slug, p.ID, p.Title, p.Author, p.Date, tags, p.Excerpt, p.Image, string(status), string(body), tagKeys(p.Tags)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeletePost removes a post by slug. It returns ErrNotFound when no post has it.
func (s *Store) DeletePost(slug string) error {
	res, err := s.db.Exec(`DELETE FROM posts WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// encodeTags stores tags as written, minus blanks, as a JSON array.
func encodeTags(tags []string) (string, error) {
	kept := FilterEmpty(tags)
	if kept == nil {
		kept = []string{}
	}
	b, err := json.Marshal(kept)
	return string(b), err
}

// decodeTags reads the tags column. Rows written before tags were kept as
// JSON hold the comma-delimited form instead.
func decodeTags(col string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(col), &tags); err == nil {
		return FilterEmpty(tags)
	}
	return ParseTags(col)
}

// tagKeys lowercases tags and encodes them as ",a,b," so a single tag can be
// matched with instr.
func tagKeys(tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			normalized = append(normalized, t)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
