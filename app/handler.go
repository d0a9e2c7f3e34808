package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/calliope-press/inkstone/internal/contentservice"
	"github.com/calliope-press/inkstone/internal/sectionservice"
)

func (app *application) currentSiteHandler(w http.ResponseWriter, r *http.Request) {
	site := app.getSiteContext(r)

	err := app.writeJSON(w, http.StatusOK, envelope{"site": site}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createArticleRequest struct {
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

func (app *application) createArticleHandler(w http.ResponseWriter, r *http.Request) {
	var input createArticleRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	site := app.getSiteContext(r)

	article, err := app.contentService.CreateArticle(r.Context(), &contentservice.CreateArticleRequest{
		SiteID:      site.ID,
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Body:        input.Body,
		Excerpt:     input.Excerpt,
		Filter:      input.Filter,
		Slug:        input.Slug,
		PublishedAt: input.PublishedAt,
		CommentAge:  input.CommentAge,
		SectionIDs:  input.SectionIDs,
	})
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, contentservice.ErrOwnerForeignKey):
			app.failedValidationErrorResponse(w, r, map[string]string{"owner_id": "does not exist"})
		case errors.Is(err, common.ErrRecordNotFound):
			app.failedValidationErrorResponse(w, r, map[string]string{"section_ids": "contains an unknown section"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"article": article}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type updateArticleRequest struct {
	UpdaterID   *int       `json:"updater_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt"`
	Filter      string     `json:"filter"`
	PublishedAt *time.Time `json:"published_at"`
	CommentAge  int        `json:"comment_age"`
	SectionIDs  []int      `json:"section_ids"`
}

func (app *application) updateArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input updateArticleRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	article, err := app.contentService.UpdateArticle(r.Context(), &contentservice.UpdateArticleRequest{
		ID:          id,
		UpdaterID:   input.UpdaterID,
		Title:       input.Title,
		Body:        input.Body,
		Excerpt:     input.Excerpt,
		Filter:      input.Filter,
		PublishedAt: input.PublishedAt,
		CommentAge:  input.CommentAge,
		SectionIDs:  input.SectionIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	article, err := app.contentService.GetArticleByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"article": article}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.contentService.DeleteArticle(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "article deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listArticlesHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	site := app.getSiteContext(r)

	articles, err := app.contentService.FindByDate(r.Context(), site.ID, limit, offset)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"articles": articles}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listArticlesInMonthHandler(w http.ResponseWriter, r *http.Request) {
	year, err := app.readIntParam(r, "year")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	month, err := app.readIntParam(r, "month")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	site := app.getSiteContext(r)

	articles, err := app.contentService.FindAllInMonth(r.Context(), site.ID, year, month)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"articles": articles}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listArticlesByTagsHandler(w http.ResponseWriter, r *http.Request) {
	tagsParam := r.URL.Query().Get("tags")
	var tags []string
	if tagsParam != "" {
		tags = strings.Split(tagsParam, ",")
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			app.badRequestErrorResponse(w, r, errors.New("invalid limit parameter"))
			return
		}
		limit = n
	}

	site := app.getSiteContext(r)

	articles, err := app.contentService.FindAllByTags(r.Context(), site.ID, tags, limit)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"articles": articles}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getArticleBySlugHandler is the public read path: it resolves a published
// article and returns its projection, with instants shown in the site's
// timezone and section paths resolved.
func (app *application) getArticleBySlugHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	slug := params.ByName("slug")

	site := app.getSiteContext(r)

	article, err := app.contentService.GetPublishedBySlug(r.Context(), site.ID, slug)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	paths, err := app.sectionPaths(r, article)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	drop := article.Drop(time.Now().UTC(), contentservice.DropOptions{
		Mode:         "single",
		Timezone:     site.Timezone,
		SectionPaths: paths,
	})

	err = app.writeJSON(w, http.StatusOK, envelope{"article": drop}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// sectionPaths resolves an article's section memberships to paths for drops.
func (app *application) sectionPaths(r *http.Request, article *contentservice.Article) ([]string, error) {
	paths := make([]string, 0, len(article.SectionIDs))
	for _, id := range article.SectionIDs {
		section, err := app.sectionService.GetSectionByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, common.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		paths = append(paths, section.Path)
	}
	return paths, nil
}

func (app *application) listArticleVersionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	versions, err := app.contentService.ListVersions(r.Context(), id)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"versions": versions}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type submitCommentRequest struct {
	Author    string `json:"author"`
	AuthorURL string `json:"author_url"`
	Body      string `json:"body"`
}

func (app *application) submitCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input submitCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.contentService.SubmitComment(r.Context(), &contentservice.SubmitCommentRequest{
		ArticleID: id,
		Author:    input.Author,
		AuthorURL: input.AuthorURL,
		AuthorIP:  clientIP(r),
		Body:      input.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, contentservice.ErrCommentsClosed):
			app.commentsClosedErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var comments []contentservice.Comment

	switch r.URL.Query().Get("state") {
	case "", "approved":
		comments, err = app.contentService.ApprovedComments(r.Context(), id)
	case "unapproved":
		comments, err = app.contentService.UnapprovedComments(r.Context(), id)
	case "all":
		comments, err = app.contentService.AllComments(r.Context(), id)
	default:
		app.badRequestErrorResponse(w, r, errors.New("invalid state parameter"))
		return
	}
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.contentService.GetCommentByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.contentService.DeleteComment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) approveCommentHandler(w http.ResponseWriter, r *http.Request) {
	app.moderateCommentHandler(w, r, true)
}

func (app *application) unapproveCommentHandler(w http.ResponseWriter, r *http.Request) {
	app.moderateCommentHandler(w, r, false)
}

func (app *application) moderateCommentHandler(w http.ResponseWriter, r *http.Request, approved bool) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var comment *contentservice.Comment
	if approved {
		comment, err = app.contentService.ApproveComment(r.Context(), id)
	} else {
		comment, err = app.contentService.UnapproveComment(r.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createSectionRequest struct {
	Name              string `json:"name"`
	Path              string `json:"path"`
	ShowPagedArticles bool   `json:"show_paged_articles"`
}

func (app *application) createSectionHandler(w http.ResponseWriter, r *http.Request) {
	var input createSectionRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	site := app.getSiteContext(r)

	section, err := app.sectionService.CreateSection(r.Context(), &sectionservice.CreateSectionRequest{
		SiteID:            site.ID,
		Name:              input.Name,
		Path:              input.Path,
		ShowPagedArticles: input.ShowPagedArticles,
	})
	if err != nil {
		switch {
		case errors.Is(err, sectionservice.ErrDuplicatePath):
			app.conflictErrorResponse(w, r, "a section with this path already exists")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"section": section}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type updateSectionRequest struct {
	Name              string `json:"name"`
	Path              string `json:"path"`
	ShowPagedArticles bool   `json:"show_paged_articles"`
}

func (app *application) updateSectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input updateSectionRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	section, err := app.sectionService.UpdateSection(r.Context(), &sectionservice.UpdateSectionRequest{
		ID:                id,
		Name:              input.Name,
		Path:              input.Path,
		ShowPagedArticles: input.ShowPagedArticles,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, sectionservice.ErrDuplicatePath):
			app.conflictErrorResponse(w, r, "a section with this path already exists")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"section": section}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getSectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	section, err := app.sectionService.GetSectionByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"section": section}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteSectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.sectionService.DeleteSection(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "section deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listSectionsHandler(w http.ResponseWriter, r *http.Request) {
	site := app.getSiteContext(r)

	var sections []sectionservice.Section
	var err error

	if r.URL.Query().Get("paged") == "true" {
		sections, err = app.sectionService.FindPaged(r.Context(), site.ID)
	} else {
		sections, err = app.sectionService.ListBySite(r.Context(), site.ID)
	}
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	counts, err := app.sectionService.ArticlesCount(r.Context(), site.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"sections": sections, "article_counts": counts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type reorderSectionRequest struct {
	ArticleIDs []int `json:"article_ids"`
}

func (app *application) reorderSectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input reorderSectionRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.sectionService.Reorder(r.Context(), id, input.ArticleIDs)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "section reordered"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listSectionMembershipsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	memberships, err := app.sectionService.Memberships(r.Context(), id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"memberships": memberships}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listSectionArticlesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	articles, err := app.contentService.FindBySection(r.Context(), id, limit, offset)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"articles": articles}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// resolveSectionPathHandler maps a request path like "about/site-map" to the
// deepest matching section plus the leftover page name.
func (app *application) resolveSectionPathHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if path == "" {
		segments = nil
	}

	site := app.getSiteContext(r)

	section, pageName, err := app.sectionService.FindSectionAndPageName(r.Context(), site.ID, segments)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"section": section, "page_name": pageName}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
