package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres unique_violation, the only constraint class the domains
// surface as a distinct error.
const uniqueViolation = "23505"

// MapError translates storage-layer errors into the domain sentinels
// the caller supplies: sql.ErrNoRows becomes notFound and a unique
// constraint violation becomes duplicate. Anything else passes through
// untouched so unexpected failures stay visible.
func MapError(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicate
	}
	return err
}
