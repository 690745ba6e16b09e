package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulfill3d/folio"
	"github.com/fulfill3d/folio/blocks"
)

func importCmd() *cobra.Command {
	var (
		postsPath string
		dbPath    string
		replace   bool
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON posts document into the SQLite catalog",
		Long: `Load a JSON posts document into the SQLite catalog.

Posts are upserted by slug. Malformed posts are skipped and malformed blocks
are dropped; both are logged. With --strict any issue aborts the import.

Examples:
  folio import --posts content/posts.json --db data/folio.db
  folio import --posts content/posts.json --db data/folio.db --replace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, issues, err := folio.DecodePostsFile(postsPath)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				logger.Warnf("%v", issue)
			}
			if strict && len(issues) > 0 {
				return fmt.Errorf("%d issues found, nothing imported", len(issues))
			}

			store, err := folio.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()
			if err := store.ImportPosts(posts, replace); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			logger.Infof("imported %d posts into %s", len(posts), dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&postsPath, "posts", "", "JSON posts document (required)")
	cmd.Flags().StringVar(&dbPath, "db", folio.EnvOr("FOLIO_DB", "data/folio.db"), "SQLite catalog path")
	cmd.Flags().BoolVar(&replace, "replace", false, "Remove posts missing from the document")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort on any malformed post or block")
	_ = cmd.MarkFlagRequired("posts")
	return cmd
}

func exportCmd() *cobra.Command {
	var dbPath, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the SQLite catalog back out as a JSON posts document",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := folio.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()
			posts, err := store.ListAllPosts()
			if err != nil {
				return err
			}
			data, err := folio.EncodePosts(posts)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(out, append(data, '\n'), 0o644)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", folio.EnvOr("FOLIO_DB", "data/folio.db"), "SQLite catalog path")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file")
	return cmd
}

func deleteCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Remove a post from the SQLite catalog",
		Long: `Remove a post from the SQLite catalog.

A running server picks up the change when its post cache expires.

Examples:
  folio delete queue-backed-order-intake --db data/folio.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := folio.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()
			if err := store.DeletePost(args[0]); err != nil {
				if errors.Is(err, folio.ErrNotFound) {
					return fmt.Errorf("post %q not found", args[0])
				}
				return fmt.Errorf("delete: %w", err)
			}
			logger.Infof("deleted %s from %s", args[0], dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", folio.EnvOr("FOLIO_DB", "data/folio.db"), "SQLite catalog path")
	return cmd
}

func renderCmd() *cobra.Command {
	var (
		postsPath string
		dbPath    string
		format    string
		style     string
	)
	cmd := &cobra.Command{
		Use:   "render <slug>",
		Short: "Print the rendered fragments of a post",
		Long: `Print the rendered fragments of a post as JSON or HTML.

Drafts are included so they can be previewed before publishing.

Examples:
  folio render queue-backed-order-intake
  folio render queue-backed-order-intake --format html --posts content/posts.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := findPost(args[0], postsPath, dbPath)
			if err != nil {
				return err
			}
			frags := blocks.Render(post.Blocks)
			w := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(folio.FragmentsResponse{
					Slug:      post.Slug,
					Title:     post.Title,
					Date:      post.Date,
					Fragments: frags,
				})
			case "html":
				if err := blocks.View(frags, blocks.NewHighlighter(style)).Render(cmd.Context(), w); err != nil {
					return err
				}
				_, err := fmt.Fprintln(w)
				return err
			default:
				return fmt.Errorf("unknown format %q (want json or html)", format)
			}
		},
	}
	cmd.Flags().StringVar(&postsPath, "posts", "", "JSON posts document (default: embedded sample)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite catalog path")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, html)")
	cmd.Flags().StringVar(&style, "highlight-style", "github", "chroma style for --format html")
	return cmd
}

// findPost looks a post up by slug in the catalog, the posts document, or
// the embedded sample, in that order of preference.
func findPost(slug, postsPath, dbPath string) (folio.Post, error) {
	if dbPath != "" {
		store, err := folio.NewStore(dbPath)
		if err != nil {
			return folio.Post{}, fmt.Errorf("open catalog: %w", err)
		}
		defer store.Close()
		store.OnIssue = func(issue folio.PostIssue) { logger.Warnf("%v", issue) }
		post, err := store.GetPostAny(slug)
		if errors.Is(err, folio.ErrNotFound) {
			return folio.Post{}, fmt.Errorf("post %q not found", slug)
		}
		return post, err
	}

	var (
		posts  []folio.Post
		issues []folio.PostIssue
		err    error
	)
	if postsPath != "" {
		posts, issues, err = folio.DecodePostsFile(postsPath)
	} else {
		posts, issues, err = folio.SeedPosts()
	}
	if err != nil {
		return folio.Post{}, err
	}
	for _, issue := range issues {
		if issue.Slug == slug {
			logger.Warnf("%v", issue)
		}
	}
	post, err := folio.NewMemorySource(posts).GetPostAny(slug)
	if errors.Is(err, folio.ErrNotFound) {
		return folio.Post{}, fmt.Errorf("post %q not found", slug)
	}
	return post, err
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check posts documents (.json) and site profiles (.yaml)",
		Long: `Check posts documents (.json) and site profiles (.yaml, .yml).

Every issue is printed; the command exits non-zero if any file has one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				switch strings.ToLower(filepath.Ext(path)) {
				case ".yaml", ".yml":
					if _, err := folio.LoadProfileFile(path); err != nil {
						fmt.Fprintf(w, "%s: %v\n", path, err)
						failed++
						continue
					}
					fmt.Fprintf(w, "%s: ok\n", path)
				default:
					posts, issues, err := folio.DecodePostsFile(path)
					if err != nil {
						fmt.Fprintf(w, "%s: %v\n", path, err)
						failed++
						continue
					}
					for _, issue := range issues {
						fmt.Fprintf(w, "%s: %v\n", path, issue)
					}
					if len(issues) > 0 {
						failed++
						continue
					}
					fmt.Fprintf(w, "%s: ok (%d posts)\n", path, len(posts))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files have issues", failed, len(args))
			}
			return nil
		},
	}
}
