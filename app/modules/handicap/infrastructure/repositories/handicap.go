package handicapdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// HandicapDBImpl is the bun-backed implementation of Repository.
type HandicapDBImpl struct {
	DB *bun.DB
}

func (r *HandicapDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *HandicapDBImpl) RecentDifferentials(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]Differential, error) {
	var diffs []Differential
	err := r.idb(db).NewSelect().
		Model(&diffs).
		Where("player_id = ?", playerID).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch differentials for player %s: %w", playerID, err)
	}
	return diffs, nil
}

func (r *HandicapDBImpl) InsertDifferential(ctx context.Context, db bun.IDB, d *Differential) error {
	exists, err := r.HasDifferentialForRound(ctx, db, d.PlayerID, d.RoundID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("player %s round %s: %w", d.PlayerID, d.RoundID, ErrDifferentialExists)
	}
	if _, err := r.idb(db).NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert differential for player %s: %w", d.PlayerID, err)
	}
	return nil
}

func (r *HandicapDBImpl) ReplaceDifferentialForRound(ctx context.Context, db bun.IDB, d *Differential) error {
	idb := r.idb(db)
	if _, err := idb.NewDelete().
		Model((*Differential)(nil)).
		Where("player_id = ?", d.PlayerID).
		Where("round_id = ?", d.RoundID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear differential for player %s round %s: %w", d.PlayerID, d.RoundID, err)
	}
	if _, err := idb.NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace differential for player %s round %s: %w", d.PlayerID, d.RoundID, err)
	}
	return nil
}

func (r *HandicapDBImpl) HasDifferentialForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error) {
	exists, err := r.idb(db).NewSelect().
		Model((*Differential)(nil)).
		Where("player_id = ?", playerID).
		Where("round_id = ?", roundID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check differential for player %s round %s: %w", playerID, roundID, err)
	}
	return exists, nil
}

func (r *HandicapDBImpl) LatestIndexSnapshot(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (*IndexSnapshot, error) {
	snap := new(IndexSnapshot)
	err := r.idb(db).NewSelect().
		Model(snap).
		Where("player_id = ?", playerID).
		Order("created_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot for player %s: %w", playerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch latest snapshot for player %s: %w", playerID, err)
	}
	return snap, nil
}

func (r *HandicapDBImpl) InsertSnapshot(ctx context.Context, db bun.IDB, s *IndexSnapshot) error {
	if _, err := r.idb(db).NewInsert().Model(s).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert snapshot for player %s: %w", s.PlayerID, err)
	}
	return nil
}

func (r *HandicapDBImpl) ListSnapshots(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]IndexSnapshot, error) {
	var snaps []IndexSnapshot
	err := r.idb(db).NewSelect().
		Model(&snaps).
		Where("player_id = ?", playerID).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for player %s: %w", playerID, err)
	}
	return snaps, nil
}
