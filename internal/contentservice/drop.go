package contentservice

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Drops are the read-only projections handed to the template layer. They
// carry resolved values (status, filtered body, permalink path) so templates
// never touch domain rules.

type DropOptions struct {
	// Mode is "single" or "list". In list mode the body collapses to the
	// excerpt when one exists.
	Mode string
	// Page marks the article as a section's main page.
	Page bool
	// Timezone is the site's zone name for presenting instants. Threaded
	// explicitly per call; there is no ambient zone state.
	Timezone string
	// SectionPaths are the resolved paths of the article's sections.
	SectionPaths []string
}

type ArticleDrop struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Body            string     `json:"body"`
	Excerpt         string     `json:"excerpt,omitempty"`
	Status          Status     `json:"status"`
	Path            string     `json:"path"`
	SectionPaths    []string   `json:"section_paths"`
	Page            bool       `json:"page"`
	AcceptsComments bool       `json:"accepts_comments"`
	CommentCount    int        `json:"comment_count"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type CommentDrop struct {
	ID        int       `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// FullPermalink is the dated slug path, "/year/month/day/slug". It is empty
// until the article is published.
func (a *Article) FullPermalink() string {
	if a.ID == 0 || a.PublishedAt == nil {
		return ""
	}
	p := *a.PublishedAt
	return fmt.Sprintf("/%d/%d/%d/%s", p.Year(), int(p.Month()), p.Day(), a.Slug)
}

func (a *Article) Drop(now time.Time, opts DropOptions) ArticleDrop {
	body := a.Body
	if opts.Mode == "list" && a.Excerpt != "" {
		body = a.Excerpt
	}

	publishedAt := a.PublishedAt
	if publishedAt != nil && opts.Timezone != "" {
		if local, err := ToLocal(*publishedAt, opts.Timezone); err == nil {
			publishedAt = &local
		}
	}

	return ArticleDrop{
		ID:              a.ID,
		Title:           a.Title,
		Body:            ApplyFilter(a.Filter, body),
		Excerpt:         a.Excerpt,
		Status:          a.Status(now),
		Path:            a.FullPermalink(),
		SectionPaths:    opts.SectionPaths,
		Page:            opts.Page,
		AcceptsComments: a.AcceptsComments(now),
		CommentCount:    a.ApprovedCommentCount,
		PublishedAt:     publishedAt,
		CreatedAt:       a.CreatedAt,
	}
}

func (c *Comment) Drop() CommentDrop {
	return CommentDrop{
		ID:        c.ID,
		Author:    c.AuthorLink(),
		Body:      ApplyFilter(c.Filter, c.Body),
		CreatedAt: c.CreatedAt,
	}
}

// AuthorLink renders the comment author as a display link. A bare author URL
// gets an http:// prefix; without a URL the name is returned escaped.
func (c *Comment) AuthorLink() string {
	author := template.HTMLEscapeString(c.Author)
	if c.AuthorURL == "" {
		return author
	}

	url := c.AuthorURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	return fmt.Sprintf("<a href=%q>%s</a>", url, author)
}
