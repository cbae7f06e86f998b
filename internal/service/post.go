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

// SelfUser in a listing's user filter stands for the caller.
const SelfUser = "self"

// RoleChecker decides whether a caller may delete other users' content.
type RoleChecker interface {
	IsModeratorOrAdmin(ctx context.Context, callerID string) (bool, error)
}

// ListPostsInput holds the filters for listing posts.
type ListPostsInput struct {
	User    string // author id or SelfUser
	Include string // one of domain.Include*; empty means all
	Page    pagination.Params
}

// CreatePostInput holds the parameters for creating a post.
type CreatePostInput struct {
	Title string
	Body  string
	Draft bool
}

// PostService implements post CRUD with draft and author visibility.
type PostService struct {
	posts  repository.PostRepository
	roles  RoleChecker
	logger *slog.Logger
	now    func() time.Time
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, roles RoleChecker, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		roles:  roles,
		logger: logger,
		now:    time.Now,
	}
}

// List returns one page of posts visible to callerID.
func (s *PostService) List(ctx context.Context, input ListPostsInput, callerID string) (pagination.Result[domain.PostView], error) {
	authorID, ok := resolveUser(input.User, callerID)
	scope := draftScope(input.Include, callerID)
	if !ok || scope.Empty() {
		return pagination.NewResult[domain.PostView](nil, input.Page, postCursor), nil
	}

	posts, err := s.posts.List(ctx, domain.PostFilter{AuthorID: authorID, Drafts: scope}, input.Page)
	if err != nil {
		return pagination.Result[domain.PostView]{}, fmt.Errorf("list posts: %w", err)
	}

	views := make([]domain.PostView, len(posts))
	for i := range posts {
		views[i] = posts[i].ViewFor(callerID)
	}
	return pagination.NewResult(views, input.Page, postCursor), nil
}

// Get returns a post. Drafts are not found for anyone but their author.
func (s *PostService) Get(ctx context.Context, id, callerID string) (domain.PostView, error) {
	notFound := apperrors.NotFoundf("Couldn't find post with id %s", id)

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.PostView{}, notFound
		}
		return domain.PostView{}, fmt.Errorf("find post: %w", err)
	}
	if post.Draft && post.Author.ID != callerID {
		return domain.PostView{}, notFound
	}

	return post.ViewFor(callerID), nil
}

// Create publishes a post, or saves it as a draft, for callerID.
func (s *PostService) Create(ctx context.Context, callerID string, input CreatePostInput) (domain.PostView, error) {
	now := s.now().UTC()
	post, err := s.posts.Create(ctx, &domain.Post{
		ID:        uuid.NewString(),
		Author:    domain.Author{ID: callerID},
		Title:     input.Title,
		Body:      input.Body,
		Draft:     input.Draft,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.PostView{}, apperrors.NotFound("Invalid user")
		}
		return domain.PostView{}, fmt.Errorf("create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID),
		slog.Bool("draft", post.Draft),
	)

	return post.ViewFor(callerID), nil
}

// Update changes a post owned by callerID. A published post cannot go
// back to being a draft.
func (s *PostService) Update(ctx context.Context, id, callerID string, patch domain.PostPatch) (domain.PostView, error) {
	if patch.Draft != nil && *patch.Draft {
		return domain.PostView{}, apperrors.BadRequest("Posts cannot be turned into drafts")
	}

	post, err := s.posts.Update(ctx, id, callerID, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.PostView{}, apperrors.NotFoundf("Couldn't find post with id %s to update", id)
		}
		return domain.PostView{}, fmt.Errorf("update post: %w", err)
	}

	return post.ViewFor(callerID), nil
}

// Delete removes a post. Moderators and admins may delete any post;
// everyone else only their own.
func (s *PostService) Delete(ctx context.Context, id, callerID string) error {
	ownerID, err := deletionOwner(ctx, s.roles, callerID)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf("Couldn't find post with id %s to delete", id)
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.InfoContext(ctx, "post deleted",
		slog.String("post_id", id),
		slog.Bool("moderated", ownerID == ""),
	)

	return nil
}

// PutVote records callerID's up or down vote on a published post,
// replacing any earlier vote.
func (s *PostService) PutVote(ctx context.Context, id, callerID string, positive bool) error {
	if callerID == "" {
		return apperrors.Unauthorized(msgMissingCaller)
	}
	notFound := apperrors.NotFound("Couldn't find post to vote, or user")

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("find post: %w", err)
	}
	if post.Draft {
		return notFound
	}

	if err := s.posts.PutVote(ctx, id, callerID, positive); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("put post vote: %w", err)
	}

	return nil
}

// DeleteVote withdraws callerID's vote on a post.
func (s *PostService) DeleteVote(ctx context.Context, id, callerID string) error {
	if callerID == "" {
		return apperrors.Unauthorized(msgMissingCaller)
	}

	if err := s.posts.DeleteVote(ctx, id, callerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Couldn't find related vote for the post or user")
		}
		return fmt.Errorf("delete post vote: %w", err)
	}

	return nil
}

func postCursor(p domain.PostView) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// resolveUser turns a user filter into an author id. SelfUser without a
// caller matches nothing.
func resolveUser(user, callerID string) (string, bool) {
	if user != SelfUser {
		return user, true
	}
	return callerID, callerID != ""
}

func draftScope(include, callerID string) domain.DraftScope {
	if include == "" {
		include = domain.IncludeAll
	}
	return domain.DraftScope{Include: include, ViewerID: callerID}
}

// msgMissingCaller rejects content writes that reach a service without an
// authenticated caller.
const msgMissingCaller = "Missing bearer access token"

// deletionOwner returns the owner a delete must be restricted to: none for
// privileged callers, the caller otherwise. Anonymous callers may not delete.
func deletionOwner(ctx context.Context, roles RoleChecker, callerID string) (string, error) {
	if callerID == "" {
		return "", apperrors.Unauthorized(msgMissingCaller)
	}
	privileged, err := roles.IsModeratorOrAdmin(ctx, callerID)
	if err != nil {
		return "", err
	}
	if privileged {
		return "", nil
	}
	return callerID, nil
}
