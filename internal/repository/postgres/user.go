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
)

const userColumns = `id, email, password_hash, name, role, verified, public_email, public_name, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users.FindByID", query)
	defer func() { end(err) }()

	return scanUser(r.db.QueryRow(ctx, query, id))
}

// FindByEmail retrieves a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	ctx, end := database.TraceQuery(ctx, "users.FindByEmail", query)
	defer func() { end(err) }()

	return scanUser(r.db.QueryRow(ctx, query, email))
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "users.Create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Role,
		u.Verified,
		u.PublicEmail,
		u.PublicName,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Verify marks a user's email as confirmed.
func (r *UserRepository) Verify(ctx context.Context, id string) (err error) {
	query := `UPDATE users SET verified = TRUE, updated_at = $2 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users.Verify", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Update applies the non-nil fields of patch.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) (u *domain.User, err error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    public_email = COALESCE($3, public_email),
		    public_name = COALESCE($4, public_name),
		    role = COALESCE($5, role),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns

	ctx, end := database.TraceQuery(ctx, "users.Update", query)
	defer func() { end(err) }()

	return scanUser(r.db.QueryRow(ctx, query,
		id,
		patch.Name,
		patch.PublicEmail,
		patch.PublicName,
		patch.Role,
		time.Now().UTC(),
	))
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) (err error) {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "users.UpdatePassword", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// scanUser reads a single user row.
func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.Verified,
		&u.PublicEmail,
		&u.PublicName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
