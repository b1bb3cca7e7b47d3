package rounddb

import "errors"

// Sentinel errors for the repository layer. Infrastructure signals only; the
// service layer decides whether they are domain failures.
var (
	// ErrNotFound indicates the requested round or entry does not exist.
	ErrNotFound = errors.New("round record not found")

	// ErrEntryNotInRound indicates a batched update referenced an entry id
	// that does not belong to the round.
	ErrEntryNotInRound = errors.New("entry does not belong to round")

	// ErrNoRowsAffected indicates an UPDATE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
