package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was changed by someone else, reload and retry")
	ErrDuplicate       = errors.New("record already exists")
	ErrReferenceUsed   = errors.New("payment reference was already recorded")
)

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// checkVersion compares the stored version with the one the client read.
// A nil expected version skips the check.
func checkVersion(stored int, expected *int) error {
	if expected != nil && *expected != stored {
		return ErrVersionConflict
	}
	return nil
}
