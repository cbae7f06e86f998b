package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/service"
	"github.com/utafrali/MicroblogGo/pkg/httputil"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
	"github.com/utafrali/MicroblogGo/pkg/validator"
)

// PostHandler handles HTTP requests for post endpoints.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a new post HTTP handler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// --- Request DTOs ---

// listPostsQuery is the query string of GET /posts.
type listPostsQuery struct {
	User    string `json:"user" validate:"omitempty,uuid|eq=self"`
	Include string `json:"include" validate:"omitempty,oneof=all published drafts"`
}

// CreatePostRequest is the JSON request body for creating a post.
type CreatePostRequest struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
	Body  string `json:"body" validate:"required,notblank,max=20000"`
	Draft bool   `json:"draft"`
}

// UpdatePostRequest is the JSON request body for updating a post.
type UpdatePostRequest struct {
	Title *string `json:"title" validate:"omitempty,notblank,max=200"`
	Body  *string `json:"body" validate:"omitempty,notblank,max=20000"`
	Draft *bool   `json:"draft"`
}

// --- Handlers ---

// List handles GET /api/v1/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	q := listPostsQuery{
		User:    r.URL.Query().Get("user"),
		Include: r.URL.Query().Get("include"),
	}
	if err := validator.Validate(q); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.posts.List(r.Context(), service.ListPostsInput{
		User:    q.User,
		Include: q.Include,
		Page:    page,
	}, callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	post, err := h.posts.Create(r.Context(), callerID(r), service.CreatePostInput{
		Title: req.Title,
		Body:  req.Body,
		Draft: req.Draft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, post)
}

// Get handles GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), id.String(), callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, post)
}

// Update handles PATCH /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	post, err := h.posts.Update(r.Context(), id.String(), callerID(r), domain.PostPatch{
		Title: req.Title,
		Body:  req.Body,
		Draft: req.Draft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, post)
}

// Delete handles DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), id.String(), callerID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutVote handles PUT /api/v1/posts/{id}/vote
func (h *PostHandler) PutVote(w http.ResponseWriter, r *http.Request) {
	id, positive, ok := decodeVote(w, r)
	if !ok {
		return
	}

	if err := h.posts.PutVote(r.Context(), id.String(), callerID(r), positive); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteVote handles DELETE /api/v1/posts/{id}/vote
func (h *PostHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.posts.DeleteVote(r.Context(), id.String(), callerID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
