package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	return hasSQLState(err, uniqueViolation)
}

// isForeignKeyViolation checks for SQLSTATE 23503.
func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, foreignKeyViolation)
}

func hasSQLState(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), code)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
