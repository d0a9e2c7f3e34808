package contentservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/calliope-press/inkstone/internal/slug"
)

func NewContentService(db *sql.DB, mb common.MessageProducer, c *common.Cache) *ContentService {
	return &ContentService{m: newContentModel(db), mb: mb, c: c}
}

type CreateArticleRequest struct {
	SiteID      int        `json:"site_id"`
	OwnerID     int        `json:"owner_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt"`
	Filter      string     `json:"filter"`
	Slug        string     `json:"slug"`
	PublishedAt *time.Time `json:"published_at"`
	CommentAge  int        `json:"comment_age"`
	SectionIDs  []int      `json:"section_ids"`
}

// CreateArticle validates and stores a new article. A blank slug is derived
// from the title once and never regenerated afterward; a publication instant
// is normalized to UTC before it is stored.
func (s *ContentService) CreateArticle(ctx context.Context, req *CreateArticleRequest) (*Article, error) {
	v := common.NewValidator()
	validateArticle(v, req.Title, req.OwnerID, req.SiteID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	a := &Article{
		Content: Content{
			Kind:    KindArticle,
			SiteID:  req.SiteID,
			OwnerID: req.OwnerID,
			Title:   req.Title,
			Body:    req.Body,
			Excerpt: req.Excerpt,
			Filter:  req.Filter,
			Slug:    req.Slug,
		},
		CommentAge: req.CommentAge,
		SectionIDs: req.SectionIDs,
	}

	if a.Filter == "" {
		ownerFilter, err := s.m.ownerFilter(ctx, a.OwnerID)
		if err != nil {
			return nil, err
		}
		a.Filter = ownerFilter
	}
	if a.Filter == "" {
		a.Filter = DefaultFilter
	}

	a.RecentlyPublished = req.PublishedAt != nil
	if req.PublishedAt != nil {
		utc := req.PublishedAt.UTC()
		a.PublishedAt = &utc
	}

	if a.Slug == "" {
		a.Slug = slug.Generate(a.Title)
	}

	err := s.m.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.m.insertArticle(ctx, tx, a); err != nil {
			return err
		}
		return s.m.syncAssignedSections(ctx, tx, a.ID, req.SectionIDs)
	})
	if err != nil {
		return nil, err
	}

	// A new article can shadow an older one sharing its slug.
	s.c.Delete(common.CacheKeyArticleBySlug(a.SiteID, a.Slug))

	if a.RecentlyPublished {
		if err := s.publishArticlePublished(ctx, a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

type UpdateArticleRequest struct {
	ID          int        `json:"id"`
	UpdaterID   *int       `json:"updater_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt"`
	Filter      string     `json:"filter"`
	PublishedAt *time.Time `json:"published_at"`
	CommentAge  int        `json:"comment_age"`

	// SectionIDs is the target membership set. nil leaves memberships
	// untouched; an empty slice removes them all.
	SectionIDs []int `json:"section_ids"`
}

// UpdateArticle runs the edit-commit pipeline in one transaction: validate,
// detect first publication, normalize the instant to UTC, snapshot the
// previous state when an editable text field changed, save, reconcile
// section memberships, and refresh the parent fields cached on comments.
func (s *ContentService) UpdateArticle(ctx context.Context, req *UpdateArticleRequest) (*Article, error) {
	prev, err := s.m.getArticle(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	next := &Article{
		Content: Content{
			ID:        prev.ID,
			Kind:      KindArticle,
			SiteID:    prev.SiteID,
			OwnerID:   prev.OwnerID,
			Title:     req.Title,
			Body:      req.Body,
			Excerpt:   req.Excerpt,
			Filter:    req.Filter,
			Slug:      prev.Slug,
			CreatedAt: prev.CreatedAt,
		},
		CommentAge:           req.CommentAge,
		ApprovedCommentCount: prev.ApprovedCommentCount,
		UpdaterID:            req.UpdaterID,
		SectionIDs:           req.SectionIDs,
	}

	v := common.NewValidator()
	validateArticle(v, next.Title, next.OwnerID, next.SiteID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if next.Filter == "" {
		next.Filter = prev.Filter
	}

	next.RecentlyPublished = prev.PublishedAt == nil && req.PublishedAt != nil
	if req.PublishedAt != nil {
		utc := req.PublishedAt.UTC()
		next.PublishedAt = &utc
	}

	// Slugs are sticky once set; derive one only for legacy rows that
	// managed to persist without it.
	if next.Slug == "" {
		next.Slug = slug.Generate(next.Title)
	}

	err = s.m.withTx(ctx, func(tx *sql.Tx) error {
		if ShouldSnapshot(prev, next) {
			if err := s.m.insertVersion(ctx, tx, prev, req.UpdaterID); err != nil {
				return err
			}
		}
		if err := s.m.updateArticle(ctx, tx, next); err != nil {
			return err
		}
		if err := s.m.syncAssignedSections(ctx, tx, next.ID, req.SectionIDs); err != nil {
			return err
		}
		return s.m.propagateToComments(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}

	if req.SectionIDs == nil {
		next.SectionIDs = prev.SectionIDs
	}

	s.c.Delete(common.CacheKeyArticle(next.ID))
	s.c.Delete(common.CacheKeyArticleBySlug(next.SiteID, next.Slug))

	if next.RecentlyPublished {
		if err := s.publishArticlePublished(ctx, next); err != nil {
			return nil, err
		}
	}

	return next, nil
}

// GetArticleByID returns an article with its section memberships loaded.
func (s *ContentService) GetArticleByID(ctx context.Context, id int) (*Article, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyArticle(id)); ok {
		return cached.(*Article), nil
	}

	a, err := s.m.getArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyArticle(id), a)
	return a, nil
}

// GetPublishedBySlug resolves a published article by its slug within a site.
// Slugs are deliberately not unique per site; when several published
// articles share one, the most recently published wins.
func (s *ContentService) GetPublishedBySlug(ctx context.Context, siteID int, slug string) (*Article, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	v.Check(slug != "", "slug", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyArticleBySlug(siteID, slug)); ok {
		return cached.(*Article), nil
	}

	a, err := s.m.getPublishedBySlug(ctx, siteID, slug, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyArticleBySlug(siteID, slug), a)
	return a, nil
}

func (s *ContentService) DeleteArticle(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	a, err := s.m.getArticle(ctx, id)
	if err != nil {
		return err
	}

	if err := s.m.deleteArticle(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyArticle(id))
	s.c.Delete(common.CacheKeyArticleBySlug(a.SiteID, a.Slug))
	return nil
}

// FindByDate returns a site's published articles, newest first. Default
// limit is 10 and default offset is 0.
func (s *ContentService) FindByDate(ctx context.Context, siteID int, limit, offset *int) ([]Article, error) {
	if *limit < 1 {
		*limit = 10
	}

	if *offset < 0 {
		*offset = 0
	}

	return s.m.findByDate(ctx, siteID, time.Now().UTC(), *limit, *offset)
}

func (s *ContentService) FindAllInMonth(ctx context.Context, siteID, year, month int) ([]Article, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	v.Check(year >= 1970, "year", "must be a four-digit year")
	v.Check(month >= 1 && month <= 12, "month", "must be between 1 and 12")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.findAllInMonth(ctx, siteID, year, month, time.Now().UTC())
}

// FindAllByTags returns published articles carrying any of the given labels.
func (s *ContentService) FindAllByTags(ctx context.Context, siteID int, tags []string, limit int) ([]Article, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	v.Check(len(tags) > 0, "tags", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if limit < 1 {
		limit = 15
	}

	return s.m.findAllByTags(ctx, siteID, tags, time.Now().UTC(), limit)
}

// FindBySection returns a section's published articles in manual order.
func (s *ContentService) FindBySection(ctx context.Context, sectionID int, limit, offset *int) ([]Article, error) {
	if *limit < 1 {
		*limit = 10
	}

	if *offset < 0 {
		*offset = 0
	}

	return s.m.findBySection(ctx, sectionID, time.Now().UTC(), *limit, *offset)
}

// FindBySectionByPosition returns the section's first published article in
// manual order, used for a paged section's main page.
func (s *ContentService) FindBySectionByPosition(ctx context.Context, sectionID int) (*Article, error) {
	limit, offset := 1, 0
	articles, err := s.m.findBySection(ctx, sectionID, time.Now().UTC(), limit, offset)
	if err != nil {
		return nil, err
	}

	if len(articles) == 0 {
		return nil, common.ErrRecordNotFound
	}

	return &articles[0], nil
}

func (s *ContentService) FindBySectionBySlug(ctx context.Context, sectionID int, slug string) (*Article, error) {
	v := common.NewValidator()
	validateInt(v, sectionID, "section_id")
	v.Check(slug != "", "slug", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.findBySectionBySlug(ctx, sectionID, slug, time.Now().UTC())
}

// ListVersions returns an article's retained snapshots, oldest first.
func (s *ContentService) ListVersions(ctx context.Context, articleID int) ([]Version, error) {
	v := common.NewValidator()
	validateInt(v, articleID, "article_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listVersions(ctx, articleID)
}

type SubmitCommentRequest struct {
	ArticleID int    `json:"article_id"`
	Author    string `json:"author"`
	AuthorURL string `json:"author_url"`
	AuthorIP  string `json:"author_ip"`
	Body      string `json:"body"`
}

// SubmitComment stores a new unapproved comment. The acceptance window is
// checked before validation so a closed article reports ErrCommentsClosed
// rather than a validation failure.
func (s *ContentService) SubmitComment(ctx context.Context, req *SubmitCommentRequest) (*Comment, error) {
	parent, err := s.m.getArticle(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}

	if !parent.AcceptsComments(time.Now().UTC()) {
		return nil, ErrCommentsClosed
	}

	v := common.NewValidator()
	validateComment(v, req.Body, req.Author, req.AuthorIP)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c := &Comment{
		Content: Content{
			Kind:   KindComment,
			Filter: parent.Filter,
			Body:   req.Body,
		},
		Author:    req.Author,
		AuthorURL: req.AuthorURL,
		AuthorIP:  req.AuthorIP,
	}

	if err := s.m.insertComment(ctx, c, parent); err != nil {
		return nil, err
	}

	if err := s.publishCommentSubmitted(ctx, c, parent); err != nil {
		return nil, err
	}

	return c, nil
}

// ApproveComment marks a comment as approved. Approving an already-approved
// comment is a no-op; either way the parent's counter is recomputed from the
// authoritative set of approved rows.
func (s *ContentService) ApproveComment(ctx context.Context, id int) (*Comment, error) {
	return s.moderateComment(ctx, id, true)
}

// UnapproveComment clears the approval flag, idempotently.
func (s *ContentService) UnapproveComment(ctx context.Context, id int) (*Comment, error) {
	return s.moderateComment(ctx, id, false)
}

func (s *ContentService) moderateComment(ctx context.Context, id int, approved bool) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c, err := s.m.setCommentApproved(ctx, id, approved)
	if err != nil {
		return nil, err
	}

	// The comment mirrors the parent's slug, which keys the cached
	// published lookup holding the now stale counter.
	s.c.Delete(common.CacheKeyArticle(c.ArticleID))
	s.c.Delete(common.CacheKeyArticleBySlug(c.SiteID, c.Slug))
	return c, nil
}

func (s *ContentService) GetCommentByID(ctx context.Context, id int) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getComment(ctx, id)
}

func (s *ContentService) DeleteComment(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	c, err := s.m.getComment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.m.deleteComment(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyArticle(c.ArticleID))
	s.c.Delete(common.CacheKeyArticleBySlug(c.SiteID, c.Slug))
	return nil
}

func (s *ContentService) ApprovedComments(ctx context.Context, articleID int) ([]Comment, error) {
	approved := true
	return s.m.listComments(ctx, articleID, &approved)
}

func (s *ContentService) UnapprovedComments(ctx context.Context, articleID int) ([]Comment, error) {
	approved := false
	return s.m.listComments(ctx, articleID, &approved)
}

func (s *ContentService) AllComments(ctx context.Context, articleID int) ([]Comment, error) {
	return s.m.listComments(ctx, articleID, nil)
}

type articlePublishedEvent struct {
	ArticleID   int        `json:"article_id"`
	SiteID      int        `json:"site_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	PublishedAt *time.Time `json:"published_at"`
}

// publishArticlePublished emits the first-publication event. Skipped when no
// broker is wired, which keeps the domain usable in isolation.
func (s *ContentService) publishArticlePublished(ctx context.Context, a *Article) error {
	if s.mb == nil {
		return nil
	}

	msg, err := json.Marshal(articlePublishedEvent{
		ArticleID:   a.ID,
		SiteID:      a.SiteID,
		Title:       a.Title,
		Slug:        a.Slug,
		PublishedAt: a.PublishedAt,
	})
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, msg, common.ArticlePublishedKey, common.ContentExchange)
}

type commentSubmittedEvent struct {
	CommentID    int    `json:"comment_id"`
	ArticleID    int    `json:"article_id"`
	SiteID       int    `json:"site_id"`
	ArticleTitle string `json:"article_title"`
	Author       string `json:"author"`
	Body         string `json:"body"`
}

func (s *ContentService) publishCommentSubmitted(ctx context.Context, c *Comment, parent *Article) error {
	if s.mb == nil {
		return nil
	}

	msg, err := json.Marshal(commentSubmittedEvent{
		CommentID:    c.ID,
		ArticleID:    parent.ID,
		SiteID:       parent.SiteID,
		ArticleTitle: parent.Title,
		Author:       c.Author,
		Body:         c.Body,
	})
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, msg, common.CommentSubmittedKey, common.ContentExchange)
}
