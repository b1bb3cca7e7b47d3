package handicapdb

import "errors"

var (
	// ErrDifferentialExists indicates the player already has a differential
	// posted for the round.
	ErrDifferentialExists = errors.New("differential already exists for round")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("handicap record not found")
)
