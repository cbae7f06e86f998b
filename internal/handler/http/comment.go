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

// CommentHandler handles HTTP requests for comment endpoints.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a new comment HTTP handler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type listCommentsQuery struct {
	Post    string `json:"post" validate:"omitempty,uuid"`
	User    string `json:"user" validate:"omitempty,uuid|eq=self"`
	Include string `json:"include" validate:"omitempty,oneof=all published drafts"`
}

// CreateCommentRequest is the JSON request body for creating a comment.
type CreateCommentRequest struct {
	PostID string `json:"postId" validate:"required,uuid"`
	Body   string `json:"body" validate:"required,notblank,max=5000"`
	Draft  bool   `json:"draft"`
}

// UpdateCommentRequest is the JSON request body for updating a comment.
type UpdateCommentRequest struct {
	Body  *string `json:"body" validate:"omitempty,notblank,max=5000"`
	Draft *bool   `json:"draft"`
}

// List handles GET /api/v1/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	q := listCommentsQuery{
		Post:    r.URL.Query().Get("post"),
		User:    r.URL.Query().Get("user"),
		Include: r.URL.Query().Get("include"),
	}
	if err := validator.Validate(q); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.comments.List(r.Context(), service.ListCommentsInput{
		Post:    q.Post,
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

// Create handles POST /api/v1/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), callerID(r), service.CreateCommentInput{
		PostID: req.PostID,
		Body:   req.Body,
		Draft:  req.Draft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, comment)
}

// Get handles GET /api/v1/comments/{id}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	comment, err := h.comments.Get(r.Context(), id.String(), callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, comment)
}

// Update handles PATCH /api/v1/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), id.String(), callerID(r), domain.CommentPatch{
		Body:  req.Body,
		Draft: req.Draft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, comment)
}

// Delete handles DELETE /api/v1/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), id.String(), callerID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutVote handles PUT /api/v1/comments/{id}/vote
func (h *CommentHandler) PutVote(w http.ResponseWriter, r *http.Request) {
	id, positive, ok := decodeVote(w, r)
	if !ok {
		return
	}

	if err := h.comments.PutVote(r.Context(), id.String(), callerID(r), positive); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteVote handles DELETE /api/v1/comments/{id}/vote
func (h *CommentHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.comments.DeleteVote(r.Context(), id.String(), callerID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
