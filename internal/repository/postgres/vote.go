package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/utafrali/MicroblogGo/pkg/database"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
)

// voteTable describes a <resource>_votes table keyed by (column, user_id).
type voteTable struct {
	table  string
	column string
	span   string
}

// put upserts a vote. An unknown resource or user matches
// apperrors.ErrNotFound.
func (v voteTable) put(ctx context.Context, db database.DBTX, resourceID, userID string, positive bool) (err error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, user_id, positive, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (%[2]s, user_id)
		DO UPDATE SET positive = EXCLUDED.positive, updated_at = EXCLUDED.updated_at`, v.table, v.column)

	ctx, end := database.TraceQuery(ctx, v.span+".PutVote", query)
	defer func() { end(err) }()

	_, err = db.Exec(ctx, query, resourceID, userID, positive, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("put vote: %w", err)
	}

	return nil
}

// delete removes a vote. A missing vote matches apperrors.ErrNotFound.
func (v voteTable) delete(ctx context.Context, db database.DBTX, resourceID, userID string) (err error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, v.table, v.column)

	ctx, end := database.TraceQuery(ctx, v.span+".DeleteVote", query)
	defer func() { end(err) }()

	ct, err := db.Exec(ctx, query, resourceID, userID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
