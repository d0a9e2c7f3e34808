package contentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/calliope-press/inkstone/internal/common"
)

var (
	ErrOwnerForeignKey = errors.New("owner_id does not exist")
	ErrSiteForeignKey  = errors.New("site_id does not exist")

	// ErrCommentsClosed is returned when a comment is submitted outside the
	// article's acceptance window. Distinct from a validation failure so
	// callers can present a "comments closed" message.
	ErrCommentsClosed = errors.New("comments are closed for this article")
)

func newContentModel(db *sql.DB) *ContentModel {
	return &ContentModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// withTx runs fn inside a transaction, rolling back on error. The article
// commit path and moderation transitions must be all-or-nothing.
func (m *ContentModel) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func contentWriteError(err error) error {
	switch {
	case ForeignKeyError(err, "contents_owner_id_fkey"):
		return ErrOwnerForeignKey
	case ForeignKeyError(err, "contents_site_id_fkey"):
		return ErrSiteForeignKey
	default:
		return err
	}
}

const articleColumns = `id, site_id, owner_id, updater_id, title, body, excerpt, filter, slug, published_at, comment_age, approved_comments_count, created_at, updated_at`

// prefixColumns qualifies a column list with a table alias for joins.
func prefixColumns(prefix, columns string) string {
	return prefix + strings.ReplaceAll(columns, ", ", ", "+prefix)
}

func scanArticle(row interface{ Scan(dest ...any) error }) (*Article, error) {
	var a Article
	a.Kind = KindArticle
	err := row.Scan(&a.ID, &a.SiteID, &a.OwnerID, &a.UpdaterID, &a.Title, &a.Body, &a.Excerpt, &a.Filter, &a.Slug, &a.PublishedAt, &a.CommentAge, &a.ApprovedCommentCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &a, nil
}

func (m *ContentModel) insertArticle(ctx context.Context, tx *sql.Tx, a *Article) error {
	query := `
		INSERT INTO contents (kind, site_id, owner_id, updater_id, title, body, excerpt, filter, slug, published_at, comment_age)
		VALUES ('article', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRowContext(ctx, query, a.SiteID, a.OwnerID, a.UpdaterID, a.Title, a.Body, a.Excerpt, a.Filter, a.Slug, a.PublishedAt, a.CommentAge).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return contentWriteError(err)
	}

	return nil
}

func (m *ContentModel) updateArticle(ctx context.Context, tx *sql.Tx, a *Article) error {
	query := `
		UPDATE contents
		SET title = $1, body = $2, excerpt = $3, filter = $4, slug = $5, published_at = $6, comment_age = $7, updater_id = $8, updated_at = now()
		WHERE id = $9 AND kind = 'article'
		RETURNING updated_at`

	err := tx.QueryRowContext(ctx, query, a.Title, a.Body, a.Excerpt, a.Filter, a.Slug, a.PublishedAt, a.CommentAge, a.UpdaterID, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		default:
			return contentWriteError(err)
		}
	}

	return nil
}

// ownerFilter returns the text filter configured on the owner's profile.
// An unknown owner yields the empty string; the article insert reports the
// missing row as a foreign key failure.
func (m *ContentModel) ownerFilter(ctx context.Context, ownerID int) (string, error) {
	query := `
		SELECT filter
		FROM users
		WHERE id = $1`

	var filter string
	err := m.db.QueryRowContext(ctx, query, ownerID).Scan(&filter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}

	return filter, nil
}

func (m *ContentModel) getArticle(ctx context.Context, id int) (*Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM contents
		WHERE id = $1 AND kind = 'article'`

	a, err := scanArticle(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	a.SectionIDs, err = m.sectionIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (m *ContentModel) sectionIDs(ctx context.Context, articleID int) ([]int, error) {
	query := `
		SELECT section_id
		FROM assigned_sections
		WHERE article_id = $1
		ORDER BY section_id`

	rows, err := m.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// deleteArticle removes the article; comments, memberships, versions and
// taggings go with it via foreign keys.
func (m *ContentModel) deleteArticle(ctx context.Context, id int) error {
	query := `
		DELETE FROM contents
		WHERE id = $1 AND kind = 'article'`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// propagateToComments refreshes the read-only parent fields cached on the
// article's comments. Runs on every article update.
func (m *ContentModel) propagateToComments(ctx context.Context, tx *sql.Tx, a *Article) error {
	query := `
		UPDATE contents
		SET title = $1, published_at = $2, slug = $3
		WHERE kind = 'comment' AND article_id = $4`

	_, err := tx.ExecContext(ctx, query, a.Title, a.PublishedAt, a.Slug, a.ID)
	return err
}

// insertVersion snapshots the previous article state and evicts the oldest
// snapshots beyond MaxVersionDepth, all within the commit transaction.
func (m *ContentModel) insertVersion(ctx context.Context, tx *sql.Tx, prev *Article, updaterID *int) error {
	query := `
		INSERT INTO content_versions (content_id, version, title, body, excerpt, updater_id)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4, $5
		FROM content_versions
		WHERE content_id = $1`

	_, err := tx.ExecContext(ctx, query, prev.ID, prev.Title, prev.Body, prev.Excerpt, updaterID)
	if err != nil {
		return err
	}

	prune := `
		DELETE FROM content_versions
		WHERE content_id = $1 AND id NOT IN (
			SELECT id FROM content_versions
			WHERE content_id = $1
			ORDER BY version DESC
			LIMIT $2
		)`

	_, err = tx.ExecContext(ctx, prune, prev.ID, MaxVersionDepth)
	return err
}

// listVersions returns the retained snapshots oldest-first.
func (m *ContentModel) listVersions(ctx context.Context, articleID int) ([]Version, error) {
	query := `
		SELECT id, content_id, version, title, body, excerpt, updater_id, created_at
		FROM content_versions
		WHERE content_id = $1
		ORDER BY version ASC`

	rows, err := m.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.ContentID, &v.Version, &v.Title, &v.Body, &v.Excerpt, &v.UpdaterID, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// syncAssignedSections reconciles the article's memberships against the
// target set: memberships for sections no longer wanted are destroyed, new
// ones are appended at the end of each section's ordering, and the rest are
// left untouched.
func (m *ContentModel) syncAssignedSections(ctx context.Context, tx *sql.Tx, articleID int, target []int) error {
	if target == nil {
		return nil
	}

	del := `
		DELETE FROM assigned_sections
		WHERE article_id = $1 AND NOT (section_id = ANY($2::int[]))`

	_, err := tx.ExecContext(ctx, del, articleID, pq.Array(target))
	if err != nil {
		return err
	}

	ins := `
		INSERT INTO assigned_sections (article_id, section_id, position)
		SELECT $1, $2, COALESCE((SELECT MAX(position) + 1 FROM assigned_sections WHERE section_id = $2), 0)
		WHERE NOT EXISTS (
			SELECT 1 FROM assigned_sections WHERE article_id = $1 AND section_id = $2
		)`

	for _, sectionID := range target {
		if _, err := tx.ExecContext(ctx, ins, articleID, sectionID); err != nil {
			if ForeignKeyError(err, "assigned_sections_section_id_fkey") {
				return common.ErrRecordNotFound
			}
			return err
		}
	}

	return nil
}

const commentColumns = `id, site_id, owner_id, article_id, title, body, excerpt, filter, slug, published_at, author, author_url, author_ip, approved, created_at, updated_at`

func scanComment(row interface{ Scan(dest ...any) error }) (*Comment, error) {
	var c Comment
	c.Kind = KindComment
	err := row.Scan(&c.ID, &c.SiteID, &c.OwnerID, &c.ArticleID, &c.Title, &c.Body, &c.Excerpt, &c.Filter, &c.Slug, &c.PublishedAt, &c.Author, &c.AuthorURL, &c.AuthorIP, &c.Approved, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// insertComment stores an unapproved comment carrying a cached copy of the
// parent's title, published_at and slug for join-free display.
func (m *ContentModel) insertComment(ctx context.Context, c *Comment, parent *Article) error {
	query := `
		INSERT INTO contents (kind, site_id, owner_id, article_id, title, body, filter, slug, published_at, author, author_url, author_ip, approved)
		VALUES ('comment', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, parent.SiteID, parent.OwnerID, parent.ID, parent.Title, c.Body, c.Filter, parent.Slug, parent.PublishedAt, c.Author, c.AuthorURL, c.AuthorIP).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return contentWriteError(err)
	}

	c.SiteID = parent.SiteID
	c.OwnerID = parent.OwnerID
	c.ArticleID = parent.ID
	c.Title = parent.Title
	c.Slug = parent.Slug
	c.PublishedAt = parent.PublishedAt
	c.Approved = false

	return nil
}

func (m *ContentModel) getComment(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM contents
		WHERE id = $1 AND kind = 'comment'`

	return scanComment(m.db.QueryRowContext(ctx, query, id))
}

// setCommentApproved flips the moderation flag and recomputes the parent's
// approved counter from the authoritative rows in the same transaction.
// Recomputing instead of incrementing keeps the counter correct under
// concurrent moderation.
func (m *ContentModel) setCommentApproved(ctx context.Context, id int, approved bool) (*Comment, error) {
	var c *Comment
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE contents
			SET approved = $1, updated_at = now()
			WHERE id = $2 AND kind = 'comment'
			RETURNING ` + commentColumns

		var err error
		c, err = scanComment(tx.QueryRowContext(ctx, query, approved, id))
		if err != nil {
			return err
		}

		return m.recountApprovedComments(ctx, tx, c.ArticleID)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (m *ContentModel) recountApprovedComments(ctx context.Context, tx *sql.Tx, articleID int) error {
	query := `
		UPDATE contents
		SET approved_comments_count = (
			SELECT COUNT(*) FROM contents
			WHERE kind = 'comment' AND article_id = $1 AND approved
		)
		WHERE id = $1`

	_, err := tx.ExecContext(ctx, query, articleID)
	return err
}

func (m *ContentModel) deleteComment(ctx context.Context, id int) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			DELETE FROM contents
			WHERE id = $1 AND kind = 'comment'
			RETURNING article_id`

		var articleID int
		err := tx.QueryRowContext(ctx, query, id).Scan(&articleID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return common.ErrRecordNotFound
			default:
				return err
			}
		}

		return m.recountApprovedComments(ctx, tx, articleID)
	})
}

// listComments returns a parent's comments oldest-first. approved filters by
// moderation state; nil returns all of them.
func (m *ContentModel) listComments(ctx context.Context, articleID int, approved *bool) ([]Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM contents
		WHERE kind = 'comment' AND article_id = $1 AND ($2::boolean IS NULL OR approved = $2)
		ORDER BY created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, articleID, approved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	return comments, rows.Err()
}

func (m *ContentModel) collectArticles(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}

	return articles, rows.Err()
}

// findByDate returns published articles for a site, newest first.
func (m *ContentModel) findByDate(ctx context.Context, siteID int, now time.Time, limit, offset int) ([]Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM contents
		WHERE kind = 'article' AND site_id = $1 AND published_at IS NOT NULL AND published_at <= $2
		ORDER BY published_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, siteID, now, limit, offset)
	if err != nil {
		return nil, err
	}

	return m.collectArticles(rows)
}

func (m *ContentModel) findAllInMonth(ctx context.Context, siteID, year, month int, now time.Time) ([]Article, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT ` + articleColumns + `
		FROM contents
		WHERE kind = 'article' AND site_id = $1 AND published_at IS NOT NULL
			AND published_at <= $2 AND published_at >= $3 AND published_at < $4
		ORDER BY published_at DESC`

	rows, err := m.db.QueryContext(ctx, query, siteID, now, start, end)
	if err != nil {
		return nil, err
	}

	return m.collectArticles(rows)
}

func (m *ContentModel) findAllByTags(ctx context.Context, siteID int, tags []string, now time.Time, limit int) ([]Article, error) {
	query := `
		SELECT DISTINCT ` + prefixColumns("c.", articleColumns) + `
		FROM contents c
		JOIN taggings tg ON tg.article_id = c.id
		JOIN tags t ON t.id = tg.tag_id
		WHERE c.kind = 'article' AND c.site_id = $1 AND c.published_at IS NOT NULL AND c.published_at <= $2
			AND t.name = ANY($3)
		ORDER BY c.published_at DESC
		LIMIT $4`

	rows, err := m.db.QueryContext(ctx, query, siteID, now, pq.Array(tags), limit)
	if err != nil {
		return nil, err
	}

	return m.collectArticles(rows)
}

func (m *ContentModel) getPublishedBySlug(ctx context.Context, siteID int, slug string, now time.Time) (*Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM contents
		WHERE kind = 'article' AND site_id = $1 AND slug = $2
			AND published_at IS NOT NULL AND published_at <= $3
		ORDER BY published_at DESC
		LIMIT 1`

	a, err := scanArticle(m.db.QueryRowContext(ctx, query, siteID, slug, now))
	if err != nil {
		return nil, err
	}

	a.SectionIDs, err = m.sectionIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// findBySection returns a section's published articles in manual order.
func (m *ContentModel) findBySection(ctx context.Context, sectionID int, now time.Time, limit, offset int) ([]Article, error) {
	query := `
		SELECT ` + prefixColumns("c.", articleColumns) + `
		FROM contents c
		JOIN assigned_sections s ON s.article_id = c.id
		WHERE s.section_id = $1 AND c.published_at IS NOT NULL AND c.published_at <= $2
		ORDER BY s.position ASC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, sectionID, now, limit, offset)
	if err != nil {
		return nil, err
	}

	return m.collectArticles(rows)
}

func (m *ContentModel) findBySectionBySlug(ctx context.Context, sectionID int, slug string, now time.Time) (*Article, error) {
	query := `
		SELECT ` + prefixColumns("c.", articleColumns) + `
		FROM contents c
		JOIN assigned_sections s ON s.article_id = c.id
		WHERE s.section_id = $1 AND c.slug = $2 AND c.published_at IS NOT NULL AND c.published_at <= $3
		ORDER BY s.position ASC
		LIMIT 1`

	return scanArticle(m.db.QueryRowContext(ctx, query, sectionID, slug, now))
}
