package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/repository"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

// ListCommentsInput holds the filters for listing comments. At least one
// of Post and User is required.
type ListCommentsInput struct {
	Post    string
	User    string // author id or SelfUser
	Include string
	Page    pagination.Params
}

// CreateCommentInput holds the parameters for creating a comment.
type CreateCommentInput struct {
	PostID string
	Body   string
	Draft  bool
}

// CommentService implements comment CRUD with draft and author visibility.
type CommentService struct {
	comments repository.CommentRepository
	roles    RoleChecker
	logger   *slog.Logger
	now      func() time.Time
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, roles RoleChecker, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		roles:    roles,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns one page of comments visible to callerID.
func (s *CommentService) List(ctx context.Context, input ListCommentsInput, callerID string) (pagination.Result[domain.CommentView], error) {
	if input.Post == "" && input.User == "" {
		return pagination.Result[domain.CommentView]{}, apperrors.BadRequest("At least one of 'user' or 'post' query params must be defined")
	}

	authorID, ok := resolveUser(input.User, callerID)
	scope := draftScope(input.Include, callerID)
	if !ok || scope.Empty() {
		return pagination.NewResult[domain.CommentView](nil, input.Page, commentCursor), nil
	}

	comments, err := s.comments.List(ctx, domain.CommentFilter{
		PostID:   input.Post,
		AuthorID: authorID,
		Drafts:   scope,
	}, input.Page)
	if err != nil {
		return pagination.Result[domain.CommentView]{}, fmt.Errorf("list comments: %w", err)
	}

	views := make([]domain.CommentView, len(comments))
	for i := range comments {
		views[i] = comments[i].ViewFor(callerID)
	}
	return pagination.NewResult(views, input.Page, commentCursor), nil
}

// Get returns a comment. Drafts are not found for anyone but their author.
func (s *CommentService) Get(ctx context.Context, id, callerID string) (domain.CommentView, error) {
	notFound := apperrors.NotFoundf("Couldn't find comment with id %s", id)

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.CommentView{}, notFound
		}
		return domain.CommentView{}, fmt.Errorf("find comment: %w", err)
	}
	if comment.Draft && comment.Author.ID != callerID {
		return domain.CommentView{}, notFound
	}

	return comment.ViewFor(callerID), nil
}

// Create adds a comment by callerID to a post.
func (s *CommentService) Create(ctx context.Context, callerID string, input CreateCommentInput) (domain.CommentView, error) {
	now := s.now().UTC()
	comment, err := s.comments.Create(ctx, &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    input.PostID,
		Author:    domain.Author{ID: callerID},
		Body:      input.Body,
		Draft:     input.Draft,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.CommentView{}, apperrors.NotFound("Invalid user or post")
		}
		return domain.CommentView{}, fmt.Errorf("create comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("post_id", comment.PostID),
	)

	return comment.ViewFor(callerID), nil
}

// Update changes a comment owned by callerID.
func (s *CommentService) Update(ctx context.Context, id, callerID string, patch domain.CommentPatch) (domain.CommentView, error) {
	if patch.Draft != nil && *patch.Draft {
		return domain.CommentView{}, apperrors.BadRequest("Comments cannot be turned into drafts")
	}

	comment, err := s.comments.Update(ctx, id, callerID, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.CommentView{}, apperrors.NotFoundf("Couldn't find comment with id %s to update", id)
		}
		return domain.CommentView{}, fmt.Errorf("update comment: %w", err)
	}

	return comment.ViewFor(callerID), nil
}

// Delete removes a comment. Moderators and admins may delete any comment.
func (s *CommentService) Delete(ctx context.Context, id, callerID string) error {
	ownerID, err := deletionOwner(ctx, s.roles, callerID)
	if err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf("Couldn't find comment with id %s to delete", id)
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("comment_id", id),
		slog.Bool("moderated", ownerID == ""),
	)

	return nil
}

// PutVote records callerID's up or down vote on a published comment,
// replacing any earlier vote.
func (s *CommentService) PutVote(ctx context.Context, id, callerID string, positive bool) error {
	if callerID == "" {
		return apperrors.Unauthorized(msgMissingCaller)
	}
	notFound := apperrors.NotFound("Couldn't find comment to vote, or user")

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if comment.Draft {
		return notFound
	}

	if err := s.comments.PutVote(ctx, id, callerID, positive); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("put comment vote: %w", err)
	}

	return nil
}

// DeleteVote withdraws callerID's vote on a comment.
func (s *CommentService) DeleteVote(ctx context.Context, id, callerID string) error {
	if callerID == "" {
		return apperrors.Unauthorized(msgMissingCaller)
	}

	if err := s.comments.DeleteVote(ctx, id, callerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Couldn't find related vote for the comment or user")
		}
		return fmt.Errorf("delete comment vote: %w", err)
	}

	return nil
}

func commentCursor(c domain.CommentView) pagination.Cursor {
	return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
}
