package api

import (
	"strings"

	"github.com/jmcleod/lela/internal/util"
	"github.com/jmcleod/lela/storage"
)

// LoginRequest is the JSON body for POST /admin/login. A missing secret is
// treated like a wrong one.
type LoginRequest struct {
	Secret *string `json:"secret"`
}

// candidate returns the submitted secret, or "" when none was given.
func (r LoginRequest) candidate() string {
	if r.Secret == nil {
		return ""
	}
	return *r.Secret
}

// OKResponse is returned by operations that only report success.
type OKResponse struct {
	OK bool `json:"ok"`
}

// StoryRequest is the JSON body for POST /stories and PUT /stories/{slug}.
type StoryRequest struct {
	Title         string  `json:"title"`
	Slug          *string `json:"slug,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	Content       string  `json:"content"`
	CoverImageURL *string `json:"coverImageUrl,omitempty"`
	Status        string  `json:"status,omitempty"`
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

// Validate checks the request and converts it into a story ready for
// storage. The slug comes from Slug when set, else from Title. A blank
// cover image URL is stored as null and any status other than "published"
// means draft.
func (req StoryRequest) Validate() (*storage.Story, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, &validationError{msg: "title and content are required"}
	}

	source := req.Title
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		source = *req.Slug
	}
	slug := util.Slugify(source)
	if slug == "" {
		return nil, &validationError{msg: "slug must contain at least one letter or digit"}
	}

	story := &storage.Story{
		Slug:    slug,
		Title:   req.Title,
		Excerpt: req.Excerpt,
		Content: req.Content,
		Status:  storage.ParseStatus(req.Status),
	}
	if req.CoverImageURL != nil && strings.TrimSpace(*req.CoverImageURL) != "" {
		cover := *req.CoverImageURL
		story.CoverImageURL = &cover
	}
	return story, nil
}

// CreateStoryResponse is returned from POST /stories.
type CreateStoryResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// ListStoriesResponse is returned from GET /stories.
type ListStoriesResponse struct {
	Stories []*storage.Story `json:"stories"`
	PaginationMeta
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
