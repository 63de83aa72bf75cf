package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/lela/internal/uuid"
	"github.com/jmcleod/lela/storage"
)

// statusAll is the list filter that returns stories of every status.
const statusAll = "all"

// ListStories handles GET /stories. Published stories are public; listing
// drafts (?status=draft) or everything (?status=all) requires the operator.
func (a *API) ListStories(w http.ResponseWriter, r *http.Request) {
	status := storage.StatusPublished
	switch q := r.URL.Query().Get("status"); q {
	case "", string(storage.StatusPublished):
	case string(storage.StatusDraft):
		status = storage.StatusDraft
	case statusAll:
		status = ""
	default:
		writeError(w, http.StatusBadRequest, "status must be published, draft or all")
		return
	}
	if status != storage.StatusPublished {
		if _, ok := a.authorize(w, r); !ok {
			return
		}
	}

	stories, err := a.repo.List(r.Context(), status)
	if err != nil {
		a.writeInternalError(w, "failed to list stories", err)
		return
	}
	limit, offset := parsePagination(r)
	page, meta := paginate(stories, limit, offset)
	writeJSON(w, http.StatusOK, ListStoriesResponse{Stories: page, PaginationMeta: meta})
}

// CreateStory handles POST /stories. A story whose slug already exists is
// replaced in place, keeping its ID.
func (a *API) CreateStory(w http.ResponseWriter, r *http.Request) {
	method, ok := a.authorize(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[StoryRequest](w, r, maxStoryBodySize)
	if !ok {
		return
	}
	story, err := req.Validate()
	if err != nil {
		a.mapError(w, err)
		return
	}
	story.ID = uuid.New()

	stored, err := a.repo.Upsert(r.Context(), story)
	if err != nil {
		a.writeInternalError(w, "failed to save story", err)
		return
	}
	event := AuditStoryCreated
	if stored.ID != story.ID {
		event = AuditStoryUpdated
	}
	a.audit.logStory(event, r, stored.Slug, method)
	writeJSON(w, http.StatusCreated, CreateStoryResponse{ID: stored.ID, Slug: stored.Slug})
}

// GetStory handles GET /stories/{slug}. Drafts are only visible to the
// operator; everyone else gets the same 404 as for a missing slug.
func (a *API) GetStory(w http.ResponseWriter, r *http.Request) {
	story, err := a.repo.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if story.Status != storage.StatusPublished && !a.authorizer.Authorized(r) {
		writeError(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, story)
}

// UpdateStory handles PUT /stories/{slug}. The story keeps the slug from
// the path; a slug in the body is ignored.
func (a *API) UpdateStory(w http.ResponseWriter, r *http.Request) {
	method, ok := a.authorize(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	req, ok := decodeJSON[StoryRequest](w, r, maxStoryBodySize)
	if !ok {
		return
	}
	req.Slug = &slug
	story, err := req.Validate()
	if err != nil {
		a.mapError(w, err)
		return
	}
	story.Slug = slug

	existing, err := a.repo.Get(r.Context(), slug)
	if err != nil {
		a.mapError(w, err)
		return
	}
	story.ID = existing.ID

	stored, err := a.repo.Upsert(r.Context(), story)
	if err != nil {
		a.writeInternalError(w, "failed to save story", err)
		return
	}
	a.audit.logStory(AuditStoryUpdated, r, stored.Slug, method)
	writeJSON(w, http.StatusOK, stored)
}

// DeleteStory handles DELETE /stories/{slug}.
func (a *API) DeleteStory(w http.ResponseWriter, r *http.Request) {
	method, ok := a.authorize(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	if err := a.repo.Delete(r.Context(), slug); err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logStory(AuditStoryDeleted, r, slug, method)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
