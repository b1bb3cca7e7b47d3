package roundservice

import (
	"context"

	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Service is the round module's application surface.
type Service interface {
	CreateRound(ctx context.Context, input CreateRoundInput) (results.OperationResult[CreatedRound, RoundFailure], error)
	GetRound(ctx context.Context, roundID sharedtypes.RoundID) (*rounddb.Round, []rounddb.ScoreEntry, error)

	// SaveScoreBatch applies a batched score write to an in-progress round.
	SaveScoreBatch(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (results.OperationResult[sharedtypes.BatchResult, BatchFailure], error)

	// CompleteRound finalizes a round: validates completeness, applies
	// equitable stroke control, posts differentials, and refreshes each
	// player's handicap index. nine selects which nine counts when an
	// eighteen-hole round is completed as a nine-hole score.
	CompleteRound(ctx context.Context, roundID sharedtypes.RoundID, nine sharedtypes.NineSelection) (results.OperationResult[CompletedRound, CompletionFailure], error)

	AbandonRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult[AbandonedRound, RoundFailure], error)

	// EditCompletedScore corrects an entry of a completed round, writing an
	// audit record and recomputing the player's differential and index.
	EditCompletedScore(ctx context.Context, input EditScoreInput) (results.OperationResult[EditOutcome, EditFailure], error)
	EditHistory(ctx context.Context, roundID sharedtypes.RoundID) ([]rounddb.ScoreEditRecord, error)
}

// CreateRoundInput describes a new round: the course, the tee played, and
// the roster.
type CreateRoundInput struct {
	CourseName   string
	Tee          sharedtypes.TeeRating
	Holes        []sharedtypes.HoleDefinition
	Participants []rounddb.Participant
}

// CreatedRound is the success payload of CreateRound.
type CreatedRound struct {
	Round   *rounddb.Round
	Entries []rounddb.ScoreEntry
}

// RoundFailure is a generic domain failure for round lifecycle operations.
type RoundFailure struct {
	Reason string
}

// BatchFailure explains a rejected score batch.
type BatchFailure struct {
	Reason string
}

// CompletionFailure explains a rejected completion. PlayerID and MissingHoles
// identify the first participant whose scorecard is incomplete.
type CompletionFailure struct {
	Reason       string
	PlayerID     sharedtypes.PlayerID
	MissingHoles int
}

// PlayerResult is one player's final numbers for a completed round.
type PlayerResult struct {
	PlayerID       sharedtypes.PlayerID
	CourseHandicap int
	GrossScore     int
	AdjustedGross  int
	NetScore       int
	Differential   float64
	// Index is nil when the player still lacks enough history for one.
	Index *float64
	// ComputedFrom is how many differentials fed the index.
	ComputedFrom int
}

// CompletedRound is the success payload of CompleteRound.
type CompletedRound struct {
	Round   *rounddb.Round
	Results []PlayerResult
}

// AbandonedRound is the success payload of AbandonRound.
type AbandonedRound struct {
	Round *rounddb.Round
}

// EditScoreInput describes an audited post-completion correction. Nil fields
// leave the entry's value unchanged.
type EditScoreInput struct {
	RoundID    sharedtypes.RoundID
	EntryID    sharedtypes.EntryID
	NewStrokes *sharedtypes.Strokes
	NewPutts   *sharedtypes.OptionalInt
	Editor     string
	Reason     string
}

// EditOutcome is the success payload of EditCompletedScore.
type EditOutcome struct {
	Entry  *rounddb.ScoreEntry
	Result PlayerResult
}

// EditFailure explains a rejected edit.
type EditFailure struct {
	Reason string
}
