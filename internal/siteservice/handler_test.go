package siteservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/stretchr/testify/assert"
)

func setupTestEnvironment(t *testing.T) (*SiteService, *sql.DB, error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	return NewSiteService(db, cache), db, nil
}

func createTestSite(db *sql.DB, host, title string) (*int, error) {
	query := `
		INSERT INTO sites (host, title, timezone)
		VALUES ($1, $2, 'UTC')
		RETURNING id`

	var id int
	err := db.QueryRow(query, host, title).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func TestResolveByHost(t *testing.T) {
	s, db, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	defaultId, err := createTestSite(db, "main.example.com", "Main Site")
	assert.NoError(t, err)
	otherId, err := createTestSite(db, "other.example.com", "Other Site")
	assert.NoError(t, err)

	ctx := context.Background()

	testCases := []struct {
		name       string
		host       string
		expectedID int
	}{
		{
			name:       "exact host",
			host:       "other.example.com",
			expectedID: *otherId,
		},
		{
			name:       "host matching is case-insensitive",
			host:       "OTHER.example.com",
			expectedID: *otherId,
		},
		{
			name:       "unknown host falls back to the default site",
			host:       "unknown.example.com",
			expectedID: *defaultId,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			site, err := s.ResolveByHost(ctx, tc.host)
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedID, site.ID)

			// Second lookup is served from cache.
			site, err = s.ResolveByHost(ctx, tc.host)
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedID, site.ID)
		})
	}
}

func TestGetSiteByID(t *testing.T) {
	s, db, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	siteId, err := createTestSite(db, "main.example.com", "Main Site")
	assert.NoError(t, err)

	ctx := context.Background()

	site, err := s.GetSiteByID(ctx, *siteId)
	assert.NoError(t, err)
	assert.Equal(t, "Main Site", site.Title)

	_, err = s.GetSiteByID(ctx, 999)
	assert.Equal(t, common.ErrRecordNotFound, err)

	_, err = s.GetSiteByID(ctx, 0)
	assert.Equal(t, common.ErrRecordNotFound, err)
}
