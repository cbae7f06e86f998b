package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/utafrali/MicroblogGo/pkg/httputil"
	"github.com/utafrali/MicroblogGo/pkg/validator"
)

// PutVoteRequest is the JSON request body for voting on a post or comment.
type PutVoteRequest struct {
	Positive *bool `json:"positive" validate:"required"`
}

// decodeVote parses the {id} URL parameter and the vote body. It writes
// the error response itself and reports false when the request is invalid.
func decodeVote(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool, bool) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return uuid.Nil, false, false
	}

	var req PutVoteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return uuid.Nil, false, false
	}

	return id, *req.Positive, true
}
