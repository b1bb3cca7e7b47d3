package scorebridge

import (
	"context"
	"sync"

	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// FakeSaver records every batch and delegates to SaveBatchFunc when set.
type FakeSaver struct {
	mu           sync.Mutex
	SaveBatchFunc func(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error)
	batches      [][]sharedtypes.ScoreEntryUpdate
}

func (f *FakeSaver) SaveBatch(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
	f.mu.Lock()
	f.batches = append(f.batches, updates)
	f.mu.Unlock()
	if f.SaveBatchFunc != nil {
		return f.SaveBatchFunc(ctx, roundID, updates)
	}
	ids := make([]sharedtypes.EntryID, len(updates))
	for i, u := range updates {
		ids[i] = u.EntryID
	}
	return sharedtypes.BatchResult{AcceptedEntryIDs: ids}, nil
}

func (f *FakeSaver) Batches() [][]sharedtypes.ScoreEntryUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]sharedtypes.ScoreEntryUpdate, len(f.batches))
	copy(out, f.batches)
	return out
}

// FakeBackup is an in-memory BackupStore.
type FakeBackup struct {
	mu        sync.Mutex
	snapshots map[sharedtypes.RoundID]scorestore.Snapshot
	saves     int
	SaveFunc  func(ctx context.Context, snap scorestore.Snapshot) error
}

func NewFakeBackup() *FakeBackup {
	return &FakeBackup{snapshots: make(map[sharedtypes.RoundID]scorestore.Snapshot)}
}

func (f *FakeBackup) Save(ctx context.Context, snap scorestore.Snapshot) error {
	if f.SaveFunc != nil {
		if err := f.SaveFunc(ctx, snap); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snap.RoundID] = snap
	f.saves++
	return nil
}

func (f *FakeBackup) Load(_ context.Context, roundID sharedtypes.RoundID) (scorestore.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[roundID]
	return snap, ok, nil
}

func (f *FakeBackup) Delete(_ context.Context, roundID sharedtypes.RoundID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, roundID)
	return nil
}

func (f *FakeBackup) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *FakeBackup) Snapshot(roundID sharedtypes.RoundID) (scorestore.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[roundID]
	return snap, ok
}
