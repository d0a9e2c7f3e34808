package sectionservice

import (
	"database/sql"
	"strings"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
)

// Section is a taxonomy node. Its path is unique per site (case-insensitive)
// and its article membership carries an explicit manual ordering.
type Section struct {
	ID     int    `json:"id"`
	SiteID int    `json:"site_id"`
	Name   string `json:"name"`
	Path   string `json:"path"`

	// ShowPagedArticles switches the section between a paged listing and a
	// blog-style listing.
	ShowPagedArticles bool `json:"show_paged_articles"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is one row of a section's ordered article list. Positions are
// dense zero-based integers per section.
type Membership struct {
	ArticleID int `json:"article_id"`
	SectionID int `json:"section_id"`
	Position  int `json:"position"`
}

type SectionModel struct {
	db *sql.DB
}

type SectionService struct {
	m *SectionModel
	c *common.Cache
}

// Home reports whether this is the site's home section.
func (s *Section) Home() bool {
	return strings.EqualFold(s.Path, "home")
}

func (s *Section) Paged() bool {
	return s.ShowPagedArticles
}

func (s *Section) Blog() bool {
	return !s.ShowPagedArticles
}

// ToURL returns the section's path segments. The home section lives at the
// site root and yields no segments.
func (s *Section) ToURL() []string {
	if s.Path == "" || s.Home() {
		return []string{}
	}
	return strings.Split(s.Path, "/")
}

func (s *Section) ToPageURL(pageName string) []string {
	return append(s.ToURL(), pageName)
}

func (s *Section) ToFeedURL() []string {
	return s.ToPageURL("atom.xml")
}
