package handicapdb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Repository is the handicap module's persistence surface. Methods accept a
// bun.IDB so they can join a caller's transaction; nil uses the repository's
// own connection.
type Repository interface {
	// RecentDifferentials returns the player's differentials newest first,
	// at most limit of them.
	RecentDifferentials(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]Differential, error)

	// InsertDifferential posts a differential. Returns ErrDifferentialExists
	// when the player already has one for the round.
	InsertDifferential(ctx context.Context, db bun.IDB, d *Differential) error

	// ReplaceDifferentialForRound swaps the player's differential for the
	// round with d, used when a completed score is edited.
	ReplaceDifferentialForRound(ctx context.Context, db bun.IDB, d *Differential) error

	// HasDifferentialForRound reports whether the player already posted a
	// differential for the round.
	HasDifferentialForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error)

	// LatestIndexSnapshot returns the player's most recent snapshot, or
	// ErrNotFound when none has been computed yet.
	LatestIndexSnapshot(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (*IndexSnapshot, error)

	InsertSnapshot(ctx context.Context, db bun.IDB, s *IndexSnapshot) error
	ListSnapshots(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]IndexSnapshot, error)
}
