package scorestore

import "errors"

// Programmer errors: these indicate a caller bug, not a runtime condition to
// recover from, and fail loudly.
var (
	ErrNotInitialized = errors.New("score store not initialized")
	ErrNoRound        = errors.New("round id is required")
	ErrUnknownEntry   = errors.New("entry does not belong to this round")
	ErrInvalidStrokes = errors.New("strokes must be between 1 and 15")
	ErrNoFairwayOnPar3 = errors.New("fairway tracking not applicable")
)
