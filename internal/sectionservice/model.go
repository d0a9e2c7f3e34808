package sectionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/calliope-press/inkstone/internal/common"
)

// ErrDuplicatePath is returned when a section path collides with another
// section of the same site. The comparison is case-insensitive.
var ErrDuplicatePath = errors.New("path already exists for this site")

func newSectionModel(db *sql.DB) *SectionModel {
	return &SectionModel{db: db}
}

func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *SectionModel) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

const sectionColumns = `id, site_id, name, path, show_paged_articles, created_at, updated_at`

func scanSection(row interface{ Scan(dest ...any) error }) (*Section, error) {
	var s Section
	err := row.Scan(&s.ID, &s.SiteID, &s.Name, &s.Path, &s.ShowPagedArticles, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &s, nil
}

func (m *SectionModel) insert(ctx context.Context, s *Section) error {
	query := `
		INSERT INTO sections (site_id, name, path, show_paged_articles)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, s.SiteID, s.Name, s.Path, s.ShowPagedArticles).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err, "sections_site_id_path_key"):
			return ErrDuplicatePath
		default:
			return err
		}
	}

	return nil
}

func (m *SectionModel) update(ctx context.Context, s *Section) error {
	query := `
		UPDATE sections
		SET name = $1, path = $2, show_paged_articles = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, s.Name, s.Path, s.ShowPagedArticles, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case uniqueViolation(err, "sections_site_id_path_key"):
			return ErrDuplicatePath
		default:
			return err
		}
	}

	return nil
}

// delete removes the section and its membership rows. Articles survive.
func (m *SectionModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM sections
		WHERE id = $1`

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

func (m *SectionModel) get(ctx context.Context, id int) (*Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE id = $1`

	return scanSection(m.db.QueryRowContext(ctx, query, id))
}

func (m *SectionModel) getByPath(ctx context.Context, siteID int, path string) (*Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE site_id = $1 AND lower(path) = lower($2)`

	return scanSection(m.db.QueryRowContext(ctx, query, siteID, path))
}

func (m *SectionModel) collect(rows *sql.Rows) ([]Section, error) {
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *s)
	}

	return sections, rows.Err()
}

func (m *SectionModel) listBySite(ctx context.Context, siteID int) ([]Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE site_id = $1
		ORDER BY name`

	rows, err := m.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}

	return m.collect(rows)
}

// findPaged scopes the listing to paged sections only.
func (m *SectionModel) findPaged(ctx context.Context, siteID int) ([]Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections
		WHERE site_id = $1 AND show_paged_articles = true
		ORDER BY name`

	rows, err := m.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}

	return m.collect(rows)
}

// articlesCount groups membership rows per section for a site.
func (m *SectionModel) articlesCount(ctx context.Context, siteID int) (map[int]int, error) {
	query := `
		SELECT s.id, COUNT(a.article_id)
		FROM sections s
		LEFT JOIN assigned_sections a ON a.section_id = s.id
		WHERE s.site_id = $1
		GROUP BY s.id`

	rows, err := m.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

// memberships returns the section's ordered article list.
func (m *SectionModel) memberships(ctx context.Context, sectionID int) ([]Membership, error) {
	query := `
		SELECT article_id, section_id, position
		FROM assigned_sections
		WHERE section_id = $1
		ORDER BY position ASC`

	rows, err := m.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		var mb Membership
		if err := rows.Scan(&mb.ArticleID, &mb.SectionID, &mb.Position); err != nil {
			return nil, err
		}
		members = append(members, mb)
	}

	return members, rows.Err()
}

// reorder applies the manual ordering in one transaction. Each listed
// article that is already a member gets its index as position; members
// absent from the list are destroyed. Articles not already members are not
// added here; membership changes go through the article commit path.
func (m *SectionModel) reorder(ctx context.Context, sectionID int, orderedArticleIDs []int) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		update := `
			UPDATE assigned_sections
			SET position = $1
			WHERE section_id = $2 AND article_id = $3`

		for i, articleID := range orderedArticleIDs {
			if _, err := tx.ExecContext(ctx, update, i, sectionID, articleID); err != nil {
				return err
			}
		}

		del := `
			DELETE FROM assigned_sections
			WHERE section_id = $1 AND NOT (article_id = ANY($2::int[]))`

		_, err := tx.ExecContext(ctx, del, sectionID, pq.Array(orderedArticleIDs))
		return err
	})
}
