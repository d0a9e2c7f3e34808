package sectionservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/calliope-press/inkstone/internal/slug"
)

func NewSectionService(db *sql.DB, c *common.Cache) *SectionService {
	return &SectionService{m: newSectionModel(db), c: c}
}

type CreateSectionRequest struct {
	SiteID            int    `json:"site_id"`
	Name              string `json:"name"`
	Path              string `json:"path"`
	ShowPagedArticles bool   `json:"show_paged_articles"`
}

// CreateSection stores a new section. A blank path is derived from the name;
// a colliding path within the site is reported as ErrDuplicatePath.
func (s *SectionService) CreateSection(ctx context.Context, req *CreateSectionRequest) (*Section, error) {
	v := common.NewValidator()
	validateSection(v, req.Name, req.SiteID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	section := &Section{
		SiteID:            req.SiteID,
		Name:              req.Name,
		Path:              req.Path,
		ShowPagedArticles: req.ShowPagedArticles,
	}

	if section.Path == "" {
		section.Path = slug.GeneratePath(section.Name)
	}

	if err := s.m.insert(ctx, section); err != nil {
		return nil, err
	}

	return section, nil
}

type UpdateSectionRequest struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Path              string `json:"path"`
	ShowPagedArticles bool   `json:"show_paged_articles"`
}

func (s *SectionService) UpdateSection(ctx context.Context, req *UpdateSectionRequest) (*Section, error) {
	section, err := s.m.get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	prevPath := section.Path

	section.Name = req.Name
	section.Path = req.Path
	section.ShowPagedArticles = req.ShowPagedArticles

	v := common.NewValidator()
	validateSection(v, section.Name, section.SiteID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if section.Path == "" {
		section.Path = slug.GeneratePath(section.Name)
	}

	if err := s.m.update(ctx, section); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeySectionByPath(section.SiteID, prevPath))
	s.c.Delete(common.CacheKeySectionByPath(section.SiteID, section.Path))

	return section, nil
}

// DeleteSection destroys the section and its membership rows only; the
// articles themselves survive.
func (s *SectionService) DeleteSection(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	section, err := s.m.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.m.delete(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeySectionByPath(section.SiteID, section.Path))
	return nil
}

func (s *SectionService) GetSectionByID(ctx context.Context, id int) (*Section, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.get(ctx, id)
}

func (s *SectionService) GetByPath(ctx context.Context, siteID int, path string) (*Section, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	v.Check(path != "", "path", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeySectionByPath(siteID, path)); ok {
		return cached.(*Section), nil
	}

	section, err := s.m.getByPath(ctx, siteID, path)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeySectionByPath(siteID, path), section)
	return section, nil
}

// Home returns the site's home section: the one whose path is "home".
func (s *SectionService) Home(ctx context.Context, siteID int) (*Section, error) {
	return s.GetByPath(ctx, siteID, "home")
}

func (s *SectionService) ListBySite(ctx context.Context, siteID int) ([]Section, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listBySite(ctx, siteID)
}

// FindPaged returns only the site's paged sections.
func (s *SectionService) FindPaged(ctx context.Context, siteID int) ([]Section, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.findPaged(ctx, siteID)
}

// ArticlesCount returns membership counts keyed by section id.
func (s *SectionService) ArticlesCount(ctx context.Context, siteID int) (map[int]int, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.articlesCount(ctx, siteID)
}

// Memberships returns the section's article list in manual order.
func (s *SectionService) Memberships(ctx context.Context, sectionID int) ([]Membership, error) {
	v := common.NewValidator()
	validateInt(v, sectionID, "section_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.memberships(ctx, sectionID)
}

// Reorder applies a manual ordering to the section's memberships as a single
// atomic unit, so readers never observe a half-applied ordering.
func (s *SectionService) Reorder(ctx context.Context, sectionID int, orderedArticleIDs []int) error {
	v := common.NewValidator()
	validateInt(v, sectionID, "section_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	if _, err := s.m.get(ctx, sectionID); err != nil {
		return err
	}

	return s.m.reorder(ctx, sectionID, orderedArticleIDs)
}

// FindSectionAndPageName resolves a request path like "about/site-map" to
// the deepest section whose path prefixes it, returning the leftover
// segments as a page name. "about/site-map" with a section at "about"
// yields that section and "site-map".
func (s *SectionService) FindSectionAndPageName(ctx context.Context, siteID int, segments []string) (*Section, string, error) {
	v := common.NewValidator()
	validateInt(v, siteID, "site_id")
	v.Check(len(segments) > 0, "path", "must be provided")
	if !v.Valid() {
		return nil, "", v.ValidationError()
	}

	var pageName []string
	for len(segments) > 0 {
		section, err := s.m.getByPath(ctx, siteID, strings.Join(segments, "/"))
		if err == nil {
			return section, strings.Join(pageName, "/"), nil
		}
		if !errors.Is(err, common.ErrRecordNotFound) {
			return nil, "", err
		}

		pageName = append([]string{segments[len(segments)-1]}, pageName...)
		segments = segments[:len(segments)-1]
	}

	return nil, "", common.ErrRecordNotFound
}
