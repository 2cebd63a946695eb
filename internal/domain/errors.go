package domain

import (
	"errors"
	"fmt"

	"github.com/uid0/openmakersuite/internal/model"
)

// Sentinel errors returned by services. Handlers map these onto HTTP
// statuses; callers match with errors.Is / errors.As.
var (
	ErrNotFound       = errors.New("record not found")
	ErrTransientStore = errors.New("storage contention, retry")
	ErrUnauthorized   = errors.New("invalid credentials")
	ErrForbidden      = errors.New("operation not allowed for this role")
)

// DuplicateActiveRequestError rejects a reorder submission because the
// item already has a request in flight. Existing carries the blocking
// request so callers can surface it without a second lookup.
type DuplicateActiveRequestError struct {
	Existing *model.ReorderRequest
}

func (e *DuplicateActiveRequestError) Error() string {
	return fmt.Sprintf("item %s already has an active reorder request (%s, status %s)",
		e.Existing.ItemID, e.Existing.ID, e.Existing.Status)
}

// InvalidTransitionError rejects a reorder state change that the
// lifecycle does not permit.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move reorder request from %s to %s", e.From, e.To)
}

// ValidationError carries field-level problems with a write request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
