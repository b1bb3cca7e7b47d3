package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// RoundDBImpl is the bun-backed implementation of Repository.
type RoundDBImpl struct {
	DB *bun.DB
}

func (r *RoundDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *RoundDBImpl) CreateRound(ctx context.Context, db bun.IDB, round *Round) error {
	if _, err := r.idb(db).NewInsert().Model(round).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create round %s: %w", round.ID, err)
	}
	return nil
}

func (r *RoundDBImpl) GetRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (*Round, error) {
	round := new(Round)
	err := r.idb(db).NewSelect().
		Model(round).
		Where("id = ?", roundID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch round %s: %w", roundID, err)
	}
	return round, nil
}

func (r *RoundDBImpl) UpdateRound(ctx context.Context, db bun.IDB, round *Round) error {
	round.UpdatedAt = time.Now().UTC()
	res, err := r.idb(db).NewUpdate().
		Model(round).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update round %s: %w", round.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("round %s: %w", round.ID, ErrNoRowsAffected)
	}
	return nil
}

func (r *RoundDBImpl) CreateEntries(ctx context.Context, db bun.IDB, entries []ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&entries).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create %d score entries: %w", len(entries), err)
	}
	return nil
}

func (r *RoundDBImpl) GetEntriesForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]ScoreEntry, error) {
	var entries []ScoreEntry
	err := r.idb(db).NewSelect().
		Model(&entries).
		Where("round_id = ?", roundID).
		Order("hole_number ASC", "player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries for round %s: %w", roundID, err)
	}
	return entries, nil
}

func (r *RoundDBImpl) GetEntry(ctx context.Context, db bun.IDB, entryID sharedtypes.EntryID) (*ScoreEntry, error) {
	entry := new(ScoreEntry)
	err := r.idb(db).NewSelect().
		Model(entry).
		Where("id = ?", entryID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (r *RoundDBImpl) UpdateEntry(ctx context.Context, db bun.IDB, entry *ScoreEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	res, err := r.idb(db).NewUpdate().
		Model(entry).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entry %s: %w", entry.ID, ErrNoRowsAffected)
	}
	return nil
}

// UpsertEntryBatch validates that every update targets an entry of the round,
// then applies the full field set of each update. The server timestamp it
// returns is what the batch's acceptance is keyed on client-side.
func (r *RoundDBImpl) UpsertEntryBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) ([]sharedtypes.EntryID, time.Time, error) {
	idb := r.idb(db)
	now := time.Now().UTC()

	entries, err := r.GetEntriesForRound(ctx, idb, roundID)
	if err != nil {
		return nil, time.Time{}, err
	}
	byID := make(map[sharedtypes.EntryID]*ScoreEntry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	for _, u := range updates {
		if _, ok := byID[u.EntryID]; !ok {
			return nil, time.Time{}, fmt.Errorf("entry %s in batch for round %s: %w", u.EntryID, roundID, ErrEntryNotInRound)
		}
	}

	accepted := make([]sharedtypes.EntryID, 0, len(updates))
	for _, u := range updates {
		entry := byID[u.EntryID]
		// The batch carries the full field set for every dirty entry, so a
		// nil Strokes means the stroke count was cleared.
		entry.Strokes = u.Strokes
		if u.Putts != nil {
			entry.Putts = *u.Putts
		}
		if u.FairwayHit != nil {
			entry.FairwayHit = *u.FairwayHit
		}
		if u.GreenInRegulation != nil {
			entry.GreenInRegulation = *u.GreenInRegulation
		}
		entry.UpdatedAt = now

		if _, err := idb.NewUpdate().Model(entry).WherePK().Exec(ctx); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to apply batch update to entry %s: %w", u.EntryID, err)
		}
		accepted = append(accepted, u.EntryID)
	}

	return accepted, now, nil
}

func (r *RoundDBImpl) InsertEditRecord(ctx context.Context, db bun.IDB, rec *ScoreEditRecord) error {
	if _, err := r.idb(db).NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert edit record for entry %s: %w", rec.EntryID, err)
	}
	return nil
}

func (r *RoundDBImpl) ListEditRecords(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]ScoreEditRecord, error) {
	var recs []ScoreEditRecord
	err := r.idb(db).NewSelect().
		Model(&recs).
		Where("round_id = ?", roundID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list edit records for round %s: %w", roundID, err)
	}
	return recs, nil
}
