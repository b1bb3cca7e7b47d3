package rounddb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Repository is the round module's persistence surface. Every method accepts
// a bun.IDB so service-level transactions can flow through; nil falls back
// to the repository's own connection.
type Repository interface {
	CreateRound(ctx context.Context, db bun.IDB, round *Round) error
	GetRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (*Round, error)
	UpdateRound(ctx context.Context, db bun.IDB, round *Round) error

	CreateEntries(ctx context.Context, db bun.IDB, entries []ScoreEntry) error
	GetEntriesForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]ScoreEntry, error)
	GetEntry(ctx context.Context, db bun.IDB, entryID sharedtypes.EntryID) (*ScoreEntry, error)
	UpdateEntry(ctx context.Context, db bun.IDB, entry *ScoreEntry) error

	// UpsertEntryBatch applies a batched score write. Every update must name
	// an entry belonging to roundID; the whole batch is rejected otherwise.
	// Returns the accepted entry ids and the server timestamp stamped on them.
	UpsertEntryBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) ([]sharedtypes.EntryID, time.Time, error)

	InsertEditRecord(ctx context.Context, db bun.IDB, rec *ScoreEditRecord) error
	ListEditRecords(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]ScoreEditRecord, error)
}
