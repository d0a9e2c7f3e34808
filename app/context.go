package main

import (
	"context"
	"net/http"

	"github.com/calliope-press/inkstone/internal/siteservice"
)

type contextKey string

const siteContextKey = contextKey("site")

func (app *application) createSiteContext(r *http.Request, site *siteservice.Site) *http.Request {
	ctx := context.WithValue(r.Context(), siteContextKey, site)
	return r.WithContext(ctx)
}

func (app *application) getSiteContext(r *http.Request) *siteservice.Site {
	site, ok := r.Context().Value(siteContextKey).(*siteservice.Site)
	if !ok {
		return nil
	}
	return site
}
