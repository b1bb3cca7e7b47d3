package scorebridge

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/clock"
	"github.com/fairway-collective/scorekeeper/app/shared/metrics"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

var (
	alice = sharedtypes.PlayerID("player-alice")
	bob   = sharedtypes.PlayerID("player-bob")
)

func testHoles(n int) []sharedtypes.HoleDefinition {
	holes := make([]sharedtypes.HoleDefinition, n)
	for i := range holes {
		holes[i] = sharedtypes.HoleDefinition{Number: i + 1, Par: 4, DifficultyRank: i + 1, DistanceYards: 350}
	}
	return holes
}

func emptyEntries(holes []sharedtypes.HoleDefinition, players ...sharedtypes.PlayerID) []scorestore.Entry {
	var entries []scorestore.Entry
	for _, p := range players {
		for _, h := range holes {
			entries = append(entries, scorestore.Entry{
				ID:            sharedtypes.EntryID(uuid.New()),
				ParticipantID: p,
				HoleNumber:    h.Number,
			})
		}
	}
	return entries
}

func strokes(v int) *sharedtypes.Strokes {
	s := sharedtypes.Strokes(v)
	return &s
}

type fixture struct {
	store  *scorestore.Store
	bridge *Bridge
	saver  *FakeSaver
	backup *FakeBackup
	clk    *clock.Fake
	round  sharedtypes.RoundID
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	clk := clock.NewFake()
	store := scorestore.New(clk, slog.Default())
	saver := &FakeSaver{}
	backup := NewFakeBackup()
	bridge := New(store, saver, backup, clk, slog.Default(), metrics.NoOp{}, cfg)

	roundID := sharedtypes.RoundID(uuid.New())
	holes := testHoles(18)
	participants := []scorestore.Participant{
		{ID: alice, DisplayName: "Alice", Position: 0},
		{ID: bob, DisplayName: "Bob", Position: 1},
	}
	if err := store.Initialize(roundID, holes, participants, emptyEntries(holes, alice, bob), nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return &fixture{store: store, bridge: bridge, saver: saver, backup: backup, clk: clk, round: roundID}
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	f := newFixture(t, Config{})

	for hole := 1; hole <= 5; hole++ {
		if err := f.store.UpdateStrokes(alice, hole, strokes(4)); err != nil {
			t.Fatal(err)
		}
		f.clk.Advance(500 * time.Millisecond) // under the 2s debounce, timer keeps restarting
	}
	if got := len(f.saver.Batches()); got != 0 {
		t.Fatalf("save fired during rapid edits: %d batches", got)
	}

	f.clk.Advance(2 * time.Second)
	batches := f.saver.Batches()
	if len(batches) != 1 {
		t.Fatalf("expected exactly one batched write, got %d", len(batches))
	}
	if len(batches[0]) != 5 {
		t.Errorf("batch carried %d entries, want 5", len(batches[0]))
	}
	if n := len(f.store.DirtyEntries()); n != 0 {
		t.Errorf("%d entries still dirty after accepted save", n)
	}
	if f.bridge.State() != StateIdle {
		t.Errorf("state = %v, want idle", f.bridge.State())
	}
}

func TestOfflineSuppressesNetworkButNotBackup(t *testing.T) {
	f := newFixture(t, Config{})
	f.backup.mu.Lock()
	f.backup.saves = 0 // ignore writes from Initialize-era setup
	f.backup.mu.Unlock()

	f.bridge.SetOnline(false)

	for hole := 1; hole <= 5; hole++ {
		if err := f.store.UpdateStrokes(alice, hole, strokes(5)); err != nil {
			t.Fatal(err)
		}
	}

	// Durable backup reflects all 5 immediately, before any timer fires.
	if got := f.backup.Saves(); got != 5 {
		t.Errorf("backup writes = %d, want 5", got)
	}
	snap, ok := f.backup.Snapshot(f.round)
	if !ok {
		t.Fatal("no backup snapshot for round")
	}
	recorded := 0
	for _, e := range snap.Entries {
		if e.Current.Strokes != nil {
			recorded++
		}
	}
	if recorded != 5 {
		t.Errorf("backup snapshot has %d recorded strokes, want 5", recorded)
	}

	f.clk.Advance(time.Minute)
	if got := len(f.saver.Batches()); got != 0 {
		t.Fatalf("network attempted while offline: %d batches", got)
	}

	// Reconnect: exactly one batched write containing all 5 dirty entries.
	f.bridge.SetOnline(true)
	f.clk.Advance(0)
	batches := f.saver.Batches()
	if len(batches) != 1 {
		t.Fatalf("expected one batch on reconnect, got %d", len(batches))
	}
	if len(batches[0]) != 5 {
		t.Errorf("reconnect batch carried %d entries, want 5", len(batches[0]))
	}
}

func TestRetryWithBackoff(t *testing.T) {
	f := newFixture(t, Config{Debounce: 2 * time.Second, BackoffBase: time.Second, MaxRetries: 5})

	failures := 2
	f.saver.SaveBatchFunc = func(_ context.Context, _ sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
		if failures > 0 {
			failures--
			return sharedtypes.BatchResult{}, errors.New("connection reset")
		}
		ids := make([]sharedtypes.EntryID, len(updates))
		for i, u := range updates {
			ids[i] = u.EntryID
		}
		return sharedtypes.BatchResult{AcceptedEntryIDs: ids}, nil
	}

	var statuses []SaveStatus
	f.bridge.SetStatusListener(func(s SaveStatus) { statuses = append(statuses, s) })

	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}

	f.clk.Advance(2 * time.Second) // debounce -> attempt 1 fails
	if n := len(f.store.DirtyEntries()); n != 1 {
		t.Fatalf("entry must stay dirty after failure, dirty=%d", n)
	}
	if f.store.State() != scorestore.StateError {
		t.Errorf("store state = %v, want error", f.store.State())
	}

	f.clk.Advance(time.Second) // backoff 1s -> attempt 2 fails
	f.clk.Advance(2 * time.Second) // backoff 2s -> attempt 3 succeeds

	if got := len(f.saver.Batches()); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if n := len(f.store.DirtyEntries()); n != 0 {
		t.Errorf("dirty=%d after eventual success, want 0", n)
	}

	sawRetrying, sawSaved := false, false
	for _, s := range statuses {
		if s == StatusRetrying {
			sawRetrying = true
		}
		if s == StatusSaved {
			sawSaved = true
		}
	}
	if !sawRetrying || !sawSaved {
		t.Errorf("statuses %v missing retrying/saved", statuses)
	}
}

func TestRetriesExhaustedPreservesData(t *testing.T) {
	f := newFixture(t, Config{Debounce: time.Second, BackoffBase: time.Second, MaxRetries: 2})
	f.saver.SaveBatchFunc = func(context.Context, sharedtypes.RoundID, []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
		return sharedtypes.BatchResult{}, errors.New("server down")
	}

	var last SaveStatus
	f.bridge.SetStatusListener(func(s SaveStatus) { last = s })

	if err := f.store.UpdateStrokes(bob, 7, strokes(6)); err != nil {
		t.Fatal(err)
	}
	f.clk.Advance(time.Minute) // debounce + both retries all fire

	if got := len(f.saver.Batches()); got != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", got)
	}
	if last != StatusUnsaved {
		t.Errorf("final status = %v, want %v", last, StatusUnsaved)
	}
	if n := len(f.store.DirtyEntries()); n != 1 {
		t.Errorf("dirty=%d, want 1 — exhaustion must never drop data", n)
	}
	if _, ok := f.backup.Snapshot(f.round); !ok {
		t.Error("backup lost after exhausted retries")
	}
	if f.bridge.State() != StateIdle {
		t.Errorf("state = %v, want idle (no further auto-retry)", f.bridge.State())
	}
}

func TestEditsDuringInFlightSaveStayDirty(t *testing.T) {
	f := newFixture(t, Config{})

	f.saver.SaveBatchFunc = func(_ context.Context, _ sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
		// An edit lands while the batch is on the wire, with the clock not
		// advancing, so its timestamp equals the batch capture instant.
		if err := f.store.UpdateStrokes(bob, 2, strokes(3)); err != nil {
			t.Fatal(err)
		}
		ids := make([]sharedtypes.EntryID, len(updates))
		for i, u := range updates {
			ids[i] = u.EntryID
		}
		return sharedtypes.BatchResult{AcceptedEntryIDs: ids}, nil
	}

	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}
	f.clk.Advance(2 * time.Second)

	dirty := f.store.DirtyEntries()
	if len(dirty) != 1 || dirty[0].ParticipantID != bob {
		t.Fatalf("expected only the in-flight edit dirty, got %+v", dirty)
	}
	if first := f.saver.Batches()[0]; len(first) != 1 {
		t.Errorf("first batch carried %d updates, want alice's edit only", len(first))
	}

	// The resolution path re-armed the debounce for the new edit.
	f.saver.SaveBatchFunc = nil
	f.clk.Advance(2 * time.Second)
	if n := len(f.store.DirtyEntries()); n != 0 {
		t.Errorf("dirty=%d after follow-up cycle, want 0", n)
	}
	if got := len(f.saver.Batches()); got != 2 {
		t.Errorf("batches = %d, want 2", got)
	}
}

func TestFlush(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}

	if err := f.bridge.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n := len(f.store.DirtyEntries()); n != 0 {
		t.Errorf("dirty=%d after flush, want 0", n)
	}
	if got := len(f.saver.Batches()); got != 1 {
		t.Errorf("batches = %d, want 1", got)
	}

	// Clean flush is a no-op.
	if err := f.bridge.Flush(context.Background()); err != nil {
		t.Errorf("clean Flush: %v", err)
	}
	if got := len(f.saver.Batches()); got != 1 {
		t.Errorf("clean flush issued a write")
	}
}

func TestFlushOfflineWithDirtyEntries(t *testing.T) {
	f := newFixture(t, Config{})
	f.bridge.SetOnline(false)
	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}
	if err := f.bridge.Flush(context.Background()); !errors.Is(err, ErrOffline) {
		t.Errorf("Flush offline = %v, want ErrOffline", err)
	}
	if n := len(f.store.DirtyEntries()); n != 1 {
		t.Errorf("dirty=%d, want 1 — offline flush must preserve data", n)
	}
}

func TestFlushRetriesInline(t *testing.T) {
	f := newFixture(t, Config{MaxRetries: 3})
	failures := 2
	f.saver.SaveBatchFunc = func(_ context.Context, _ sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
		if failures > 0 {
			failures--
			return sharedtypes.BatchResult{}, errors.New("flaky")
		}
		ids := make([]sharedtypes.EntryID, len(updates))
		for i, u := range updates {
			ids[i] = u.EntryID
		}
		return sharedtypes.BatchResult{AcceptedEntryIDs: ids}, nil
	}

	if err := f.store.UpdateStrokes(alice, 9, strokes(4)); err != nil {
		t.Fatal(err)
	}
	if err := f.bridge.Flush(context.Background()); err != nil {
		t.Fatalf("Flush should succeed after inline retries: %v", err)
	}
	if got := len(f.saver.Batches()); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestResumePrefersNewerLocalBackup(t *testing.T) {
	f := newFixture(t, Config{})

	// The device recorded strokes that never reached the server.
	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}
	if err := f.store.UpdateStrokes(bob, 1, strokes(5)); err != nil {
		t.Fatal(err)
	}
	serverAsOf := f.clk.Now().Add(-time.Hour) // server state predates the edits

	snap := f.store.ExportSnapshot()

	// Fresh session: new store + bridge sharing the same backup.
	clk2 := f.clk
	store2 := scorestore.New(clk2, slog.Default())
	bridge2 := New(store2, f.saver, f.backup, clk2, slog.Default(), metrics.NoOp{}, Config{})

	serverEntries := emptyEntriesFromSnapshot(snap)
	err := bridge2.Resume(context.Background(), f.round, snap.Holes, snap.Participants, serverEntries, serverAsOf, nil)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	dirty := store2.DirtyEntries()
	if len(dirty) != 2 {
		t.Fatalf("resumed dirty=%d, want 2", len(dirty))
	}

	// The re-armed debounce flushes the recovered edits.
	clk2.Advance(2 * time.Second)
	if n := len(store2.DirtyEntries()); n != 0 {
		t.Errorf("dirty=%d after resume flush, want 0", n)
	}
}

func TestResumePrefersNewerServerState(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.store.UpdateStrokes(alice, 1, strokes(4)); err != nil {
		t.Fatal(err)
	}
	snap := f.store.ExportSnapshot()
	serverAsOf := f.clk.Now().Add(time.Hour) // another sync already superseded the backup

	serverEntries := emptyEntriesFromSnapshot(snap)
	sv := sharedtypes.Strokes(7)
	serverEntries[0].Original.Strokes = &sv
	serverEntries[0].Current.Strokes = &sv

	store2 := scorestore.New(f.clk, slog.Default())
	bridge2 := New(store2, f.saver, f.backup, f.clk, slog.Default(), metrics.NoOp{}, Config{})
	if err := bridge2.Resume(context.Background(), f.round, snap.Holes, snap.Participants, serverEntries, serverAsOf, nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if n := len(store2.DirtyEntries()); n != 0 {
		t.Errorf("dirty=%d when server wins, want 0", n)
	}
	e, ok := store2.Entry(serverEntries[0].ParticipantID, serverEntries[0].HoleNumber)
	if !ok || e.Current.Strokes == nil || *e.Current.Strokes != 7 {
		t.Errorf("server value not adopted: %+v", e)
	}
	if _, ok := f.backup.Snapshot(f.round); ok {
		t.Error("stale local backup not discarded")
	}
}

// emptyEntriesFromSnapshot rebuilds the server's view: same entry ids, no
// recorded values.
func emptyEntriesFromSnapshot(snap scorestore.Snapshot) []scorestore.Entry {
	out := make([]scorestore.Entry, len(snap.Entries))
	for i, e := range snap.Entries {
		out[i] = scorestore.Entry{ID: e.ID, ParticipantID: e.ParticipantID, HoleNumber: e.HoleNumber}
	}
	return out
}
