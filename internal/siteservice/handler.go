package siteservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calliope-press/inkstone/internal/common"
)

func NewSiteService(db *sql.DB, c *common.Cache) *SiteService {
	return &SiteService{m: newSiteModel(db), c: c}
}

// ResolveByHost returns the site serving the given request host, falling
// back to the default site when no host matches. Lookups are cached since
// every request resolves a site.
func (s *SiteService) ResolveByHost(ctx context.Context, host string) (*Site, error) {
	if cached, ok := s.c.Get(common.CacheKeySiteByHost(host)); ok {
		return cached.(*Site), nil
	}

	site, err := s.m.getByHost(ctx, host)
	if errors.Is(err, common.ErrRecordNotFound) {
		site, err = s.m.getDefault(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeySiteByHost(host), site)
	return site, nil
}

func (s *SiteService) GetSiteByID(ctx context.Context, id int) (*Site, error) {
	if id < 1 {
		return nil, common.ErrRecordNotFound
	}

	return s.m.get(ctx, id)
}
