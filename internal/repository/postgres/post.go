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

const postSelect = `
		SELECT p.id, p.title, p.body, p.draft, p.created_at, p.updated_at,
		       u.id, u.name, u.public_name,
		       v.positive, v.negative
		FROM %s p
		JOIN users u ON u.id = p.user_id
		CROSS JOIN LATERAL (
			SELECT COUNT(*) FILTER (WHERE pv.positive) AS positive,
			       COUNT(*) FILTER (WHERE NOT pv.positive) AS negative
			FROM post_votes pv
			WHERE pv.post_id = p.id
		) v`

var postVotes = voteTable{table: "post_votes", column: "post_id", span: "posts"}

// PostRepository implements repository.PostRepository using PostgreSQL.
type PostRepository struct {
	db database.DBTX
}

// NewPostRepository creates a new PostgreSQL-backed post repository.
func NewPostRepository(db database.DBTX) *PostRepository {
	return &PostRepository{db: db}
}

// List returns one page of posts matching filter.
func (r *PostRepository) List(ctx context.Context, filter domain.PostFilter, page pagination.Params) (posts []domain.Post, err error) {
	var w whereBuilder
	if filter.AuthorID != "" {
		w.add("p.user_id = %s", filter.AuthorID)
	}
	w.drafts("p", filter.Drafts)
	tail := w.page("p", page)
	query := fmt.Sprintf(postSelect, "posts") + w.sql() + tail

	ctx, end := database.TraceQuery(ctx, "posts.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts = make([]domain.Post, 0, page.Take)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID retrieves a post with its author.
func (r *PostRepository) FindByID(ctx context.Context, id string) (p *domain.Post, err error) {
	query := fmt.Sprintf(postSelect, "posts") + ` WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "posts.FindByID", query)
	defer func() { end(err) }()

	return scanPost(r.db.QueryRow(ctx, query, id))
}

// Create inserts a post and returns it joined with its author.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (p *domain.Post, err error) {
	query := `
		WITH p AS (
			INSERT INTO posts (id, user_id, title, body, draft, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)` + fmt.Sprintf(postSelect, "p")

	ctx, end := database.TraceQuery(ctx, "posts.Create", query)
	defer func() { end(err) }()

	p, err = scanPost(r.db.QueryRow(ctx, query,
		post.ID,
		post.Author.ID,
		post.Title,
		post.Body,
		post.Draft,
		post.CreatedAt,
		post.UpdatedAt,
	))
	if err != nil && isForeignKeyViolation(err) {
		return nil, apperrors.ErrNotFound
	}
	return p, err
}

// Update changes a post owned by ownerID.
func (r *PostRepository) Update(ctx context.Context, id, ownerID string, patch domain.PostPatch) (p *domain.Post, err error) {
	query := `
		WITH p AS (
			UPDATE posts
			SET title = COALESCE($3, title),
			    body = COALESCE($4, body),
			    draft = COALESCE($5, draft),
			    updated_at = $6
			WHERE id = $1 AND user_id = $2
			RETURNING *
		)` + fmt.Sprintf(postSelect, "p")

	ctx, end := database.TraceQuery(ctx, "posts.Update", query)
	defer func() { end(err) }()

	return scanPost(r.db.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Body,
		patch.Draft,
		time.Now().UTC(),
	))
}

// Delete removes a post, restricted to ownerID unless it is empty.
func (r *PostRepository) Delete(ctx context.Context, id, ownerID string) (err error) {
	query := `DELETE FROM posts WHERE id = $1`
	args := []any{id}
	if ownerID != "" {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}

	ctx, end := database.TraceQuery(ctx, "posts.Delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// PutVote records userID's vote on a post, replacing any earlier vote.
func (r *PostRepository) PutVote(ctx context.Context, postID, userID string, positive bool) error {
	return postVotes.put(ctx, r.db, postID, userID, positive)
}

// DeleteVote withdraws userID's vote on a post.
func (r *PostRepository) DeleteVote(ctx context.Context, postID, userID string) error {
	return postVotes.delete(ctx, r.db, postID, userID)
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Body,
		&p.Draft,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Author.ID,
		&p.Author.Name,
		&p.Author.PublicName,
		&p.Votes.Positive,
		&p.Votes.Negative,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return &p, nil
}
