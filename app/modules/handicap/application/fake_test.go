package handicapservice

import (
	"context"

	"github.com/uptrace/bun"

	handicapdb "github.com/fairway-collective/scorekeeper/app/modules/handicap/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// FakeHandicapRepo is an in-memory Repository for service tests. Behavior
// can be overridden per method via the function fields.
type FakeHandicapRepo struct {
	Differentials []handicapdb.Differential
	Snapshots     []handicapdb.IndexSnapshot

	RecentDifferentialsFunc func(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.Differential, error)
	InsertDifferentialFunc  func(ctx context.Context, db bun.IDB, d *handicapdb.Differential) error
	InsertSnapshotFunc      func(ctx context.Context, db bun.IDB, s *handicapdb.IndexSnapshot) error
}

func (f *FakeHandicapRepo) RecentDifferentials(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.Differential, error) {
	if f.RecentDifferentialsFunc != nil {
		return f.RecentDifferentialsFunc(ctx, db, playerID, limit)
	}
	var out []handicapdb.Differential
	for i := len(f.Differentials) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Differentials[i].PlayerID == playerID {
			out = append(out, f.Differentials[i])
		}
	}
	return out, nil
}

func (f *FakeHandicapRepo) InsertDifferential(ctx context.Context, db bun.IDB, d *handicapdb.Differential) error {
	if f.InsertDifferentialFunc != nil {
		return f.InsertDifferentialFunc(ctx, db, d)
	}
	for _, existing := range f.Differentials {
		if existing.PlayerID == d.PlayerID && existing.RoundID == d.RoundID {
			return handicapdb.ErrDifferentialExists
		}
	}
	f.Differentials = append(f.Differentials, *d)
	return nil
}

func (f *FakeHandicapRepo) ReplaceDifferentialForRound(ctx context.Context, db bun.IDB, d *handicapdb.Differential) error {
	kept := f.Differentials[:0]
	for _, existing := range f.Differentials {
		if existing.PlayerID == d.PlayerID && existing.RoundID == d.RoundID {
			continue
		}
		kept = append(kept, existing)
	}
	f.Differentials = append(kept, *d)
	return nil
}

func (f *FakeHandicapRepo) HasDifferentialForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error) {
	for _, existing := range f.Differentials {
		if existing.PlayerID == playerID && existing.RoundID == roundID {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeHandicapRepo) LatestIndexSnapshot(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (*handicapdb.IndexSnapshot, error) {
	for i := len(f.Snapshots) - 1; i >= 0; i-- {
		if f.Snapshots[i].PlayerID == playerID {
			snap := f.Snapshots[i]
			return &snap, nil
		}
	}
	return nil, handicapdb.ErrNotFound
}

func (f *FakeHandicapRepo) InsertSnapshot(ctx context.Context, db bun.IDB, s *handicapdb.IndexSnapshot) error {
	if f.InsertSnapshotFunc != nil {
		return f.InsertSnapshotFunc(ctx, db, s)
	}
	f.Snapshots = append(f.Snapshots, *s)
	return nil
}

func (f *FakeHandicapRepo) ListSnapshots(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.IndexSnapshot, error) {
	var out []handicapdb.IndexSnapshot
	for i := len(f.Snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Snapshots[i].PlayerID == playerID {
			out = append(out, f.Snapshots[i])
		}
	}
	return out, nil
}
