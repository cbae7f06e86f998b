package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/pkg/database"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

const commentSelect = `
		SELECT c.id, c.post_id, p.title, c.body, c.draft, c.created_at, c.updated_at,
		       u.id, u.name, u.public_name,
		       v.positive, v.negative
		FROM %s c
		JOIN posts p ON p.id = c.post_id
		JOIN users u ON u.id = c.user_id
		CROSS JOIN LATERAL (
			SELECT COUNT(*) FILTER (WHERE cv.positive) AS positive,
			       COUNT(*) FILTER (WHERE NOT cv.positive) AS negative
			FROM comment_votes cv
			WHERE cv.comment_id = c.id
		) v`

var commentVotes = voteTable{table: "comment_votes", column: "comment_id", span: "comments"}

// CommentRepository implements repository.CommentRepository using PostgreSQL.
type CommentRepository struct {
	db database.DBTX
}

// NewCommentRepository creates a new PostgreSQL-backed comment repository.
func NewCommentRepository(db database.DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// List returns one page of comments matching filter.
func (r *CommentRepository) List(ctx context.Context, filter domain.CommentFilter, page pagination.Params) (comments []domain.Comment, err error) {
	var w whereBuilder
	if filter.PostID != "" {
		w.add("c.post_id = %s", filter.PostID)
	}
	if filter.AuthorID != "" {
		w.add("c.user_id = %s", filter.AuthorID)
	}
	w.drafts("c", filter.Drafts)
	tail := w.page("c", page)
	query := fmt.Sprintf(commentSelect, "comments") + w.sql() + tail

	ctx, end := database.TraceQuery(ctx, "comments.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments = make([]domain.Comment, 0, page.Take)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// FindByID retrieves a comment with its post title and author.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (c *domain.Comment, err error) {
	query := fmt.Sprintf(commentSelect, "comments") + ` WHERE c.id = $1`

	ctx, end := database.TraceQuery(ctx, "comments.FindByID", query)
	defer func() { end(err) }()

	return scanComment(r.db.QueryRow(ctx, query, id))
}

// Create inserts a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (c *domain.Comment, err error) {
	query := `
		WITH c AS (
			INSERT INTO comments (id, post_id, user_id, body, draft, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)` + fmt.Sprintf(commentSelect, "c")

	ctx, end := database.TraceQuery(ctx, "comments.Create", query)
	defer func() { end(err) }()

	c, err = scanComment(r.db.QueryRow(ctx, query,
		comment.ID,
		comment.PostID,
		comment.Author.ID,
		comment.Body,
		comment.Draft,
		comment.CreatedAt,
		comment.UpdatedAt,
	))
	if err != nil && isForeignKeyViolation(err) {
		return nil, apperrors.ErrNotFound
	}
	return c, err
}

// Update changes a comment owned by ownerID.
func (r *CommentRepository) Update(ctx context.Context, id, ownerID string, patch domain.CommentPatch) (c *domain.Comment, err error) {
	query := `
		WITH c AS (
			UPDATE comments
			SET body = COALESCE($3, body),
			    draft = COALESCE($4, draft),
			    updated_at = $5
			WHERE id = $1 AND user_id = $2
			RETURNING *
		)` + fmt.Sprintf(commentSelect, "c")

	ctx, end := database.TraceQuery(ctx, "comments.Update", query)
	defer func() { end(err) }()

	return scanComment(r.db.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Body,
		patch.Draft,
		time.Now().UTC(),
	))
}

// Delete removes a comment, restricted to ownerID unless it is empty.
func (r *CommentRepository) Delete(ctx context.Context, id, ownerID string) (err error) {
	query := `DELETE FROM comments WHERE id = $1`
	args := []any{id}
	if ownerID != "" {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}

	ctx, end := database.TraceQuery(ctx, "comments.Delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// PutVote records userID's vote on a comment, replacing any earlier vote.
func (r *CommentRepository) PutVote(ctx context.Context, commentID, userID string, positive bool) error {
	return commentVotes.put(ctx, r.db, commentID, userID, positive)
}

// DeleteVote withdraws userID's vote on a comment.
func (r *CommentRepository) DeleteVote(ctx context.Context, commentID, userID string) error {
	return commentVotes.delete(ctx, r.db, commentID, userID)
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment

	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.PostTitle,
		&c.Body,
		&c.Draft,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Author.ID,
		&c.Author.Name,
		&c.Author.PublicName,
		&c.Votes.Positive,
		&c.Votes.Negative,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	return &c, nil
}
