package contentservice

import (
	"database/sql"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/calliope-press/inkstone/internal/sectionservice"
)

// Kind discriminates the content variants stored in the contents table.
type Kind string

const (
	KindArticle Kind = "article"
	KindComment Kind = "comment"
)

// CommentsDisabled is the CommentAge value that turns comments off entirely.
// 0 keeps them open forever; n > 0 keeps them open n days after publication.
const CommentsDisabled = -1

// Content holds the columns shared by both content kinds.
type Content struct {
	ID          int        `json:"id"`
	Kind        Kind       `json:"kind"`
	SiteID      int        `json:"site_id"`
	OwnerID     int        `json:"owner_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Filter      string     `json:"filter,omitempty"`
	Slug        string     `json:"slug"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Article struct {
	Content
	CommentAge           int   `json:"comment_age"`
	ApprovedCommentCount int   `json:"approved_comment_count"`
	UpdaterID            *int  `json:"updater_id,omitempty"`
	SectionIDs           []int `json:"section_ids"`

	// RecentlyPublished is transient: true only on the commit that first
	// moved PublishedAt from null to a concrete instant.
	RecentlyPublished bool `json:"-"`
}

type Comment struct {
	Content
	ArticleID int    `json:"article_id"`
	Author    string `json:"author"`
	AuthorURL string `json:"author_url,omitempty"`
	AuthorIP  string `json:"author_ip"`
	Approved  bool   `json:"approved"`
}

// Version is an immutable snapshot of an article's editable text fields,
// taken before an edit that changed one of them.
type Version struct {
	ID        int       `json:"id"`
	ContentID int       `json:"content_id"`
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Excerpt   string    `json:"excerpt"`
	UpdaterID *int      `json:"updater_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ContentModel struct {
	db *sql.DB
}

type ContentService struct {
	m  *ContentModel
	mb common.MessageProducer
	c  *common.Cache
}

// Status derives the article's publication state from its instant.
func (a *Article) Status(now time.Time) Status {
	return StatusAt(a.PublishedAt, now)
}

func (a *Article) Published(now time.Time) bool {
	return a.Status(now) == StatusPublished
}

// AcceptsComments reports whether a new comment may be submitted right now.
// Pending articles never accept comments, regardless of CommentAge.
func (a *Article) AcceptsComments(now time.Time) bool {
	if a.Status(now) != StatusPublished || a.CommentAge == CommentsDisabled {
		return false
	}
	return a.CommentAge == 0 || now.Before(a.CommentsExpireAt(now))
}

// CommentsExpireAt is the end of the acceptance window.
func (a *Article) CommentsExpireAt(now time.Time) time.Time {
	at := now
	if a.PublishedAt != nil {
		at = *a.PublishedAt
	}
	return at.Add(time.Duration(a.CommentAge) * 24 * time.Hour)
}

// HasSection reports membership for display purposes. An article that has
// not been saved yet counts as a member of the site's home section even
// though no membership row exists.
func (a *Article) HasSection(s *sectionservice.Section) bool {
	if a.ID == 0 && s.Home() {
		return true
	}
	for _, id := range a.SectionIDs {
		if id == s.ID {
			return true
		}
	}
	return false
}
