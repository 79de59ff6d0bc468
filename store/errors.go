package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/osr-alliance/backend-lib-leadflow/apierr"
	"github.com/osr-alliance/backend-lib-leadflow/storage"
)

// postgres error codes we surface as something other than an internal error
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqNotNullViolation    = "23502"
	pqInvalidDatetime     = "22007"
)

// ErrReminderStale is a lead whose follow-up date moved after its reminder went out
var ErrReminderStale = errors.New("store: follow-up date changed since the reminder was sent")

// translate turns storage & postgres errors into apierr sentinels; what is a string to identify the row
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, storage.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", what, apierr.ErrConflict)
		case pqCheckViolation, pqNotNullViolation, pqForeignKeyViolation, pqInvalidDatetime:
			return fmt.Errorf("%s violates %s: %w", what, pqErr.Constraint, apierr.ErrValidation)
		}
	}

	return fmt.Errorf("%s: %w", what, err)
}
