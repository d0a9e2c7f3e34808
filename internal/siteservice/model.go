package siteservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calliope-press/inkstone/internal/common"
)

func newSiteModel(db *sql.DB) *SiteModel {
	return &SiteModel{db: db}
}

const siteColumns = `id, host, title, subtitle, timezone, created_at, updated_at`

func scanSite(row interface{ Scan(dest ...any) error }) (*Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.Host, &s.Title, &s.Subtitle, &s.Timezone, &s.CreatedAt, &s.UpdatedAt)
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

func (m *SiteModel) getByHost(ctx context.Context, host string) (*Site, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE lower(host) = lower($1)`

	return scanSite(m.db.QueryRowContext(ctx, query, host))
}

// getDefault returns the oldest site, used when no host matches.
func (m *SiteModel) getDefault(ctx context.Context) (*Site, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM sites
		ORDER BY id
		LIMIT 1`

	return scanSite(m.db.QueryRowContext(ctx, query))
}

func (m *SiteModel) get(ctx context.Context, id int) (*Site, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE id = $1`

	return scanSite(m.db.QueryRowContext(ctx, query, id))
}
