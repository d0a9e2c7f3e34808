package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/site", app.currentSiteHandler)

	// articles
	router.HandlerFunc(http.MethodGet, "/v1/articles", app.listArticlesHandler)
	router.HandlerFunc(http.MethodPost, "/v1/articles", app.createArticleHandler)
	router.HandlerFunc(http.MethodGet, "/v1/articles/:id", app.getArticleHandler)
	router.HandlerFunc(http.MethodPut, "/v1/articles/:id", app.updateArticleHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/articles/:id", app.deleteArticleHandler)
	router.HandlerFunc(http.MethodGet, "/v1/articles/:id/versions", app.listArticleVersionsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/articles/:id/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/articles/:id/comments", app.submitCommentHandler)

	// published lookups
	router.HandlerFunc(http.MethodGet, "/v1/archives/:year/:month", app.listArticlesInMonthHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tagged", app.listArticlesByTagsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/slugs/:slug", app.getArticleBySlugHandler)

	// comments
	router.HandlerFunc(http.MethodGet, "/v1/comments/:id", app.getCommentHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.deleteCommentHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id/approve", app.approveCommentHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id/unapprove", app.unapproveCommentHandler)

	// sections
	router.HandlerFunc(http.MethodGet, "/v1/sections", app.listSectionsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/sections", app.createSectionHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sections/:id", app.getSectionHandler)
	router.HandlerFunc(http.MethodPut, "/v1/sections/:id", app.updateSectionHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/sections/:id", app.deleteSectionHandler)
	router.HandlerFunc(http.MethodPut, "/v1/sections/:id/order", app.reorderSectionHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sections/:id/memberships", app.listSectionMembershipsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sections/:id/articles", app.listSectionArticlesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/resolve", app.resolveSectionPathHandler)

	return app.recoverPanic(app.rateLimit(app.logRequest(app.resolveSite(router))))
}
