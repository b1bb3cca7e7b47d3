package roundservice

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fairway-collective/scorekeeper/app/events"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

func strokesOf(v sharedtypes.Strokes) *sharedtypes.Strokes {
	return &v
}

func TestSaveScoreBatchAppliesUpdates(t *testing.T) {
	svc, repo, _, publisher := newTestService()
	created := mustCreateRound(t, svc, 18)
	roundID := created.Round.ID

	updates := []sharedtypes.ScoreEntryUpdate{
		{EntryID: entryFor(t, repo, roundID, "alice", 1).ID, Strokes: strokesOf(5)},
		{EntryID: entryFor(t, repo, roundID, "alice", 2).ID, Strokes: strokesOf(3), Putts: &sharedtypes.OptionalInt{Tracked: true, Set: true, Value: 1}},
	}
	res, err := svc.SaveScoreBatch(context.Background(), roundID, updates)
	if err != nil {
		t.Fatalf("SaveScoreBatch: %v", err)
	}
	if !res.IsSuccess() {
		t.Fatalf("SaveScoreBatch failure: %+v", *res.Failure)
	}
	if got := len(res.Success.AcceptedEntryIDs); got != 2 {
		t.Errorf("accepted = %d, want 2", got)
	}
	if res.Success.ServerTime.IsZero() {
		t.Error("server time is zero")
	}

	e := entryFor(t, repo, roundID, "alice", 2)
	if e.Strokes == nil || *e.Strokes != 3 {
		t.Errorf("strokes = %v, want 3", e.Strokes)
	}
	if !e.Putts.Set || e.Putts.Value != 1 {
		t.Errorf("putts = %+v, want tracked set 1", e.Putts)
	}

	if !hasTopic(publisher.Topics(), events.ScoreBatchSavedTopic) {
		t.Errorf("topics = %v, want %s", publisher.Topics(), events.ScoreBatchSavedTopic)
	}
}

func TestSaveScoreBatchRejectsInvalidStrokes(t *testing.T) {
	svc, repo, _, _ := newTestService()
	created := mustCreateRound(t, svc, 18)

	updates := []sharedtypes.ScoreEntryUpdate{
		{EntryID: entryFor(t, repo, created.Round.ID, "alice", 1).ID, Strokes: strokesOf(16)},
	}
	res, err := svc.SaveScoreBatch(context.Background(), created.Round.ID, updates)
	if err != nil {
		t.Fatalf("SaveScoreBatch: %v", err)
	}
	if !res.IsFailure() || res.Failure.Reason != reasonInvalidStrokes {
		t.Errorf("result = %+v, want %q failure", res, reasonInvalidStrokes)
	}
}

func TestSaveScoreBatchRejectsForeignEntry(t *testing.T) {
	svc, _, _, _ := newTestService()
	created := mustCreateRound(t, svc, 18)

	updates := []sharedtypes.ScoreEntryUpdate{
		{EntryID: sharedtypes.EntryID(uuid.New()), Strokes: strokesOf(4)},
	}
	res, err := svc.SaveScoreBatch(context.Background(), created.Round.ID, updates)
	if err != nil {
		t.Fatalf("SaveScoreBatch: %v", err)
	}
	if !res.IsFailure() || res.Failure.Reason != reasonUnknownEntry {
		t.Errorf("result = %+v, want %q failure", res, reasonUnknownEntry)
	}
}

func TestSaveScoreBatchRejectsTerminalRound(t *testing.T) {
	svc, repo, _, _ := newTestService()
	created := mustCreateRound(t, svc, 18)
	roundID := created.Round.ID

	repo.Rounds[roundID].Status = sharedtypes.RoundStatusAbandoned

	updates := []sharedtypes.ScoreEntryUpdate{
		{EntryID: entryFor(t, repo, roundID, "alice", 1).ID, Strokes: strokesOf(4)},
	}
	res, err := svc.SaveScoreBatch(context.Background(), roundID, updates)
	if err != nil {
		t.Fatalf("SaveScoreBatch: %v", err)
	}
	if !res.IsFailure() || res.Failure.Reason != reasonRoundNotInProgress {
		t.Errorf("result = %+v, want %q failure", res, reasonRoundNotInProgress)
	}
}

func TestSaveScoreBatchRejectsEmptyBatch(t *testing.T) {
	svc, _, _, _ := newTestService()
	created := mustCreateRound(t, svc, 18)

	res, err := svc.SaveScoreBatch(context.Background(), created.Round.ID, nil)
	if err != nil {
		t.Fatalf("SaveScoreBatch: %v", err)
	}
	if !res.IsFailure() || res.Failure.Reason != reasonEmptyBatch {
		t.Errorf("result = %+v, want %q failure", res, reasonEmptyBatch)
	}
}
