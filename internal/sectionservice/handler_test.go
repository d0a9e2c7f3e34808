package sectionservice

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/calliope-press/inkstone/internal/common"
)

func setupTestSite(db *sql.DB) (*int, error) {
	query := `
		INSERT INTO sites (host, title, timezone)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	err := db.QueryRow(query, "test.example.com", "Test Site", "UTC").Scan(&id)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func setupTestEnvironment(t *testing.T) (*SectionService, *sql.DB, func() error, *int, error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	siteId, err := setupTestSite(db)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM sections")
		if err != nil {
			return err
		}

		_, err = db.Exec("DELETE FROM contents")
		if err != nil {
			return err
		}

		cache.Flush()

		return nil
	}

	return NewSectionService(db, cache), db, cleanup, siteId, nil
}

// createTestArticles seeds published articles as members of a section with
// dense positions, returning the article ids in position order.
func createTestArticles(db *sql.DB, siteId, sectionId, n int) ([]int, error) {
	var userId int
	err := db.QueryRow("INSERT INTO users (username, email) VALUES ('sectionuser', 'sectionuser@example.com') ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username RETURNING id").Scan(&userId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var ids []int
	for i := 0; i < n; i++ {
		var id int
		query := `
			INSERT INTO contents (kind, site_id, owner_id, title, slug, published_at)
			VALUES ('article', $1, $2, $3, $4, $5)
			RETURNING id`

		err := db.QueryRow(query, siteId, userId, fmt.Sprintf("Article %d", i), fmt.Sprintf("article-%d", i), now).Scan(&id)
		if err != nil {
			return nil, err
		}

		_, err = db.Exec("INSERT INTO assigned_sections (article_id, section_id, position) VALUES ($1, $2, $3)", id, sectionId, i)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func TestCreateSection(t *testing.T) {
	s, _, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name         string
		req          *CreateSectionRequest
		expectedPath string
		expectedErr  error
	}{
		{
			name: "path derived from name",
			req: &CreateSectionRequest{
				SiteID: *siteId,
				Name:   "About Us",
			},
			expectedPath: "about-us",
			expectedErr:  nil,
		},
		{
			name: "explicit path kept",
			req: &CreateSectionRequest{
				SiteID: *siteId,
				Name:   "About Us",
				Path:   "about",
			},
			expectedPath: "about",
			expectedErr:  nil,
		},
		{
			name: "empty name",
			req: &CreateSectionRequest{
				SiteID: *siteId,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"name": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			section, err := s.CreateSection(ctx, tc.req)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.Equal(t, tc.expectedPath, section.Path)
				assert.NotZero(t, section.ID)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}

	t.Run("duplicate path", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "About", Path: "about"})
		assert.NoError(t, err)

		// Collision detection is case-insensitive.
		_, err = s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Also About", Path: "About"})
		assert.Equal(t, ErrDuplicatePath, err)

		t.Cleanup(func() {
			err := cleanup()
			assert.NoError(t, err)
		})
	})
}

func TestUpdateSection(t *testing.T) {
	s, _, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	section, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "About", Path: "about"})
	assert.NoError(t, err)
	other, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "News", Path: "news"})
	assert.NoError(t, err)

	updated, err := s.UpdateSection(ctx, &UpdateSectionRequest{
		ID:   section.ID,
		Name: "About the Team",
		Path: "about/team",
	})
	assert.NoError(t, err)
	assert.Equal(t, "about/team", updated.Path)

	_, err = s.UpdateSection(ctx, &UpdateSectionRequest{
		ID:   other.ID,
		Name: "News",
		Path: "about/team",
	})
	assert.Equal(t, ErrDuplicatePath, err)

	_, err = s.UpdateSection(ctx, &UpdateSectionRequest{ID: 999, Name: "Ghost"})
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestGetByPath(t *testing.T) {
	s, _, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	section, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Home", Path: "home"})
	assert.NoError(t, err)

	found, err := s.GetByPath(ctx, *siteId, "HOME")
	assert.NoError(t, err)
	assert.Equal(t, section.ID, found.ID)

	home, err := s.Home(ctx, *siteId)
	assert.NoError(t, err)
	assert.Equal(t, section.ID, home.ID)

	_, err = s.GetByPath(ctx, *siteId, "missing")
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestDeleteSection(t *testing.T) {
	s, db, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	section, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Blog", Path: "blog"})
	assert.NoError(t, err)

	ids, err := createTestArticles(db, *siteId, section.ID, 2)
	assert.NoError(t, err)

	err = s.DeleteSection(ctx, section.ID)
	assert.NoError(t, err)

	// Membership rows go with the section; the articles survive.
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM assigned_sections WHERE section_id = $1", section.ID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	err = db.QueryRow("SELECT COUNT(*) FROM contents WHERE id = ANY($1::int[])", pq.Array(ids)).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	err = s.DeleteSection(ctx, section.ID)
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestReorder(t *testing.T) {
	s, db, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	section, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Blog", Path: "blog"})
	assert.NoError(t, err)

	ids, err := createTestArticles(db, *siteId, section.ID, 3)
	assert.NoError(t, err)
	a, b, c := ids[0], ids[1], ids[2]

	// Reverse the ordering.
	err = s.Reorder(ctx, section.ID, []int{c, b, a})
	assert.NoError(t, err)

	members, err := s.Memberships(ctx, section.ID)
	assert.NoError(t, err)
	assert.Equal(t, []Membership{
		{ArticleID: c, SectionID: section.ID, Position: 0},
		{ArticleID: b, SectionID: section.ID, Position: 1},
		{ArticleID: a, SectionID: section.ID, Position: 2},
	}, members)

	// Omitting an article destroys its membership.
	err = s.Reorder(ctx, section.ID, []int{a, c})
	assert.NoError(t, err)

	members, err = s.Memberships(ctx, section.ID)
	assert.NoError(t, err)
	assert.Equal(t, []Membership{
		{ArticleID: a, SectionID: section.ID, Position: 0},
		{ArticleID: c, SectionID: section.ID, Position: 1},
	}, members)

	err = s.Reorder(ctx, 999, []int{a})
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestArticlesCount(t *testing.T) {
	s, db, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	blog, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Blog", Path: "blog"})
	assert.NoError(t, err)
	empty, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Empty", Path: "empty"})
	assert.NoError(t, err)

	_, err = createTestArticles(db, *siteId, blog.ID, 3)
	assert.NoError(t, err)

	counts, err := s.ArticlesCount(ctx, *siteId)
	assert.NoError(t, err)
	assert.Equal(t, 3, counts[blog.ID])
	assert.Equal(t, 0, counts[empty.ID])
}

func TestFindPaged(t *testing.T) {
	s, _, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	_, err = s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Blog", Path: "blog"})
	assert.NoError(t, err)
	paged, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Docs", Path: "docs", ShowPagedArticles: true})
	assert.NoError(t, err)

	sections, err := s.FindPaged(ctx, *siteId)
	assert.NoError(t, err)
	assert.Len(t, sections, 1)
	assert.Equal(t, paged.ID, sections[0].ID)
}

func TestFindSectionAndPageName(t *testing.T) {
	s, _, cleanup, siteId, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	about, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "About", Path: "about"})
	assert.NoError(t, err)
	team, err := s.CreateSection(ctx, &CreateSectionRequest{SiteID: *siteId, Name: "Team", Path: "about/team"})
	assert.NoError(t, err)

	testCases := []struct {
		name             string
		segments         []string
		expectedID       int
		expectedPageName string
		expectedErr      error
	}{
		{
			name:             "exact section path",
			segments:         []string{"about"},
			expectedID:       about.ID,
			expectedPageName: "",
		},
		{
			name:             "deepest prefix wins",
			segments:         []string{"about", "team"},
			expectedID:       team.ID,
			expectedPageName: "",
		},
		{
			name:             "leftover segments become the page name",
			segments:         []string{"about", "site-map"},
			expectedID:       about.ID,
			expectedPageName: "site-map",
		},
		{
			name:             "nested leftover",
			segments:         []string{"about", "team", "alice", "bio"},
			expectedID:       team.ID,
			expectedPageName: "alice/bio",
		},
		{
			name:        "no matching prefix",
			segments:    []string{"missing", "page"},
			expectedErr: common.ErrRecordNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			section, pageName, err := s.FindSectionAndPageName(ctx, *siteId, tc.segments)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.Equal(t, tc.expectedID, section.ID)
				assert.Equal(t, tc.expectedPageName, pageName)
			}
		})
	}
}
