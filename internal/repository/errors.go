package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgInvalidTextRepresentation is raised when a bind parameter cannot
// be cast to the column type, e.g. a non-uuid string against a uuid
// column.
const pgInvalidTextRepresentation = "22P02"

// normalizeLookupErr converts an invalid-uuid bind error into
// pgx.ErrNoRows: an id that cannot be a uuid cannot match any row, so
// callers see the same not-found they would get for a well-formed but
// unknown id.
func normalizeLookupErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation {
		return pgx.ErrNoRows
	}
	return err
}
