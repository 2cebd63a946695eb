package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/domain"
)

// Postgres error codes we translate into domain errors.
const (
	pgLockNotAvailable = "55P03" // SELECT ... FOR UPDATE NOWAIT lost the race
	pgUniqueViolation  = "23505"
)

// runTx wraps fn in a transaction. A nil db runs fn directly with a nil
// tx, which lets unit tests drive services against stub repositories
// without a database.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// translateStoreErr maps storage-level failures onto the domain taxonomy.
func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return domain.ErrTransientStore
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, domain.ErrNotFound)
}
