package repository

import (
	"context"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

// UserRepository is the user directory. Lookups of missing users return
// an error matching apperrors.ErrNotFound.
type UserRepository interface {
	// FindByID retrieves a user by their unique identifier.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail retrieves a user by their email address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create inserts a new user. A taken email matches apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// Verify marks the user's email as confirmed.
	Verify(ctx context.Context, id string) error

	// Update applies the non-nil fields of patch and returns the new record.
	Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PostRepository persists posts.
type PostRepository interface {
	List(ctx context.Context, filter domain.PostFilter, page pagination.Params) ([]domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)

	// Create inserts the post and returns it with its author. An unknown
	// author matches apperrors.ErrNotFound.
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)

	// Update changes a post owned by ownerID.
	Update(ctx context.Context, id, ownerID string, patch domain.PostPatch) (*domain.Post, error)

	// Delete removes a post. An empty ownerID deletes regardless of owner.
	Delete(ctx context.Context, id, ownerID string) error

	// PutVote sets userID's vote on a post. An unknown post or user matches
	// apperrors.ErrNotFound.
	PutVote(ctx context.Context, postID, userID string, positive bool) error

	// DeleteVote withdraws userID's vote. A missing vote matches
	// apperrors.ErrNotFound.
	DeleteVote(ctx context.Context, postID, userID string) error
}

// CommentRepository persists comments.
type CommentRepository interface {
	List(ctx context.Context, filter domain.CommentFilter, page pagination.Params) ([]domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)

	// Create inserts the comment. An unknown post or author matches
	// apperrors.ErrNotFound.
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)

	// Update changes a comment owned by ownerID.
	Update(ctx context.Context, id, ownerID string, patch domain.CommentPatch) (*domain.Comment, error)

	// Delete removes a comment. An empty ownerID deletes regardless of owner.
	Delete(ctx context.Context, id, ownerID string) error

	// PutVote sets userID's vote on a comment. An unknown comment or user
	// matches apperrors.ErrNotFound.
	PutVote(ctx context.Context, commentID, userID string, positive bool) error

	// DeleteVote withdraws userID's vote. A missing vote matches
	// apperrors.ErrNotFound.
	DeleteVote(ctx context.Context, commentID, userID string) error
}
