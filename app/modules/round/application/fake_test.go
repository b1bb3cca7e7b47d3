package roundservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"

	handicapservice "github.com/fairway-collective/scorekeeper/app/modules/handicap/application"
	handicapmath "github.com/fairway-collective/scorekeeper/app/modules/handicap/domain"
	handicapdb "github.com/fairway-collective/scorekeeper/app/modules/handicap/infrastructure/repositories"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// FakeRoundRepo is an in-memory rounddb.Repository for service tests.
type FakeRoundRepo struct {
	Rounds  map[sharedtypes.RoundID]*rounddb.Round
	Entries map[sharedtypes.EntryID]*rounddb.ScoreEntry
	Edits   []rounddb.ScoreEditRecord

	UpsertEntryBatchFunc func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) ([]sharedtypes.EntryID, time.Time, error)
	UpdateRoundFunc      func(ctx context.Context, db bun.IDB, round *rounddb.Round) error
}

func NewFakeRoundRepo() *FakeRoundRepo {
	return &FakeRoundRepo{
		Rounds:  make(map[sharedtypes.RoundID]*rounddb.Round),
		Entries: make(map[sharedtypes.EntryID]*rounddb.ScoreEntry),
	}
}

func (f *FakeRoundRepo) CreateRound(ctx context.Context, db bun.IDB, round *rounddb.Round) error {
	cp := *round
	f.Rounds[round.ID] = &cp
	return nil
}

func (f *FakeRoundRepo) GetRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (*rounddb.Round, error) {
	round, ok := f.Rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("round %s: %w", roundID, rounddb.ErrNotFound)
	}
	cp := *round
	cp.Participants = append([]rounddb.Participant(nil), round.Participants...)
	return &cp, nil
}

func (f *FakeRoundRepo) UpdateRound(ctx context.Context, db bun.IDB, round *rounddb.Round) error {
	if f.UpdateRoundFunc != nil {
		return f.UpdateRoundFunc(ctx, db, round)
	}
	cp := *round
	cp.Participants = append([]rounddb.Participant(nil), round.Participants...)
	f.Rounds[round.ID] = &cp
	return nil
}

func (f *FakeRoundRepo) CreateEntries(ctx context.Context, db bun.IDB, entries []rounddb.ScoreEntry) error {
	for i := range entries {
		cp := entries[i]
		f.Entries[cp.ID] = &cp
	}
	return nil
}

func (f *FakeRoundRepo) GetEntriesForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]rounddb.ScoreEntry, error) {
	var out []rounddb.ScoreEntry
	for _, e := range f.Entries {
		if e.RoundID == roundID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *FakeRoundRepo) GetEntry(ctx context.Context, db bun.IDB, entryID sharedtypes.EntryID) (*rounddb.ScoreEntry, error) {
	e, ok := f.Entries[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, rounddb.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *FakeRoundRepo) UpdateEntry(ctx context.Context, db bun.IDB, entry *rounddb.ScoreEntry) error {
	cp := *entry
	f.Entries[entry.ID] = &cp
	return nil
}

func (f *FakeRoundRepo) UpsertEntryBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) ([]sharedtypes.EntryID, time.Time, error) {
	if f.UpsertEntryBatchFunc != nil {
		return f.UpsertEntryBatchFunc(ctx, db, roundID, updates)
	}
	now := time.Now().UTC()
	for _, u := range updates {
		e, ok := f.Entries[u.EntryID]
		if !ok || e.RoundID != roundID {
			return nil, time.Time{}, fmt.Errorf("entry %s: %w", u.EntryID, rounddb.ErrEntryNotInRound)
		}
	}
	accepted := make([]sharedtypes.EntryID, 0, len(updates))
	for _, u := range updates {
		e := f.Entries[u.EntryID]
		e.Strokes = u.Strokes
		if u.Putts != nil {
			e.Putts = *u.Putts
		}
		if u.FairwayHit != nil {
			e.FairwayHit = *u.FairwayHit
		}
		if u.GreenInRegulation != nil {
			e.GreenInRegulation = *u.GreenInRegulation
		}
		e.UpdatedAt = now
		accepted = append(accepted, u.EntryID)
	}
	return accepted, now, nil
}

func (f *FakeRoundRepo) InsertEditRecord(ctx context.Context, db bun.IDB, rec *rounddb.ScoreEditRecord) error {
	f.Edits = append(f.Edits, *rec)
	return nil
}

func (f *FakeRoundRepo) ListEditRecords(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) ([]rounddb.ScoreEditRecord, error) {
	var out []rounddb.ScoreEditRecord
	for _, rec := range f.Edits {
		if rec.RoundID == roundID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FakeHandicaps is an in-memory handicapservice.Service. It applies the real
// math so completion tests exercise the full numeric path.
type FakeHandicaps struct {
	Posted    map[string]float64 // player/round -> differential
	Snapshots map[sharedtypes.PlayerID][]float64
	Diffs     map[sharedtypes.PlayerID][]float64 // differentials newest first

	ResolveCourseHandicapFunc func(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, recorded *int, tee sharedtypes.TeeRating) (int, error)
	RecordRoundResultFunc     func(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (handicapservice.RoundResult, error)
}

func NewFakeHandicaps() *FakeHandicaps {
	return &FakeHandicaps{
		Posted:    make(map[string]float64),
		Snapshots: make(map[sharedtypes.PlayerID][]float64),
		Diffs:     make(map[sharedtypes.PlayerID][]float64),
	}
}

func postedKey(playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) string {
	return playerID.String() + "/" + roundID.String()
}

func (f *FakeHandicaps) differential(adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) float64 {
	if nineHole {
		return handicapmath.NineHoleScoreDifferential(adjustedGross, tee.CourseRating, tee.SlopeRating)
	}
	return handicapmath.ScoreDifferential(adjustedGross, tee.CourseRating, tee.SlopeRating)
}

func (f *FakeHandicaps) post(playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, value float64) handicapservice.RoundResult {
	f.Posted[postedKey(playerID, roundID)] = value
	f.Diffs[playerID] = append([]float64{value}, f.Diffs[playerID]...)

	res := handicapservice.RoundResult{Differential: value, ComputedFrom: len(f.Diffs[playerID])}
	if index, ok := handicapmath.HandicapIndex(f.Diffs[playerID]); ok {
		f.Snapshots[playerID] = append(f.Snapshots[playerID], index)
		res.Index = &index
	}
	return res
}

func (f *FakeHandicaps) RecordRoundResult(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (handicapservice.RoundResult, error) {
	if f.RecordRoundResultFunc != nil {
		return f.RecordRoundResultFunc(ctx, db, playerID, roundID, adjustedGross, tee, nineHole)
	}
	if _, exists := f.Posted[postedKey(playerID, roundID)]; exists {
		return handicapservice.RoundResult{}, handicapdb.ErrDifferentialExists
	}
	return f.post(playerID, roundID, f.differential(adjustedGross, tee, nineHole)), nil
}

func (f *FakeHandicaps) RecomputeAfterEdit(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (handicapservice.RoundResult, error) {
	key := postedKey(playerID, roundID)
	if old, exists := f.Posted[key]; exists {
		hist := f.Diffs[playerID]
		for i, v := range hist {
			if v == old {
				f.Diffs[playerID] = append(hist[:i:i], hist[i+1:]...)
				break
			}
		}
	}
	return f.post(playerID, roundID, f.differential(adjustedGross, tee, nineHole)), nil
}

func (f *FakeHandicaps) CurrentIndex(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (float64, bool, error) {
	snaps := f.Snapshots[playerID]
	if len(snaps) == 0 {
		return 0, false, nil
	}
	return snaps[len(snaps)-1], true, nil
}

func (f *FakeHandicaps) ResolveCourseHandicap(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, recorded *int, tee sharedtypes.TeeRating) (int, error) {
	if f.ResolveCourseHandicapFunc != nil {
		return f.ResolveCourseHandicapFunc(ctx, db, playerID, recorded, tee)
	}
	if recorded != nil {
		return *recorded, nil
	}
	index, ok, _ := f.CurrentIndex(ctx, db, playerID)
	if !ok {
		index = handicapmath.DefaultHandicapIndex
	}
	return handicapmath.CourseHandicap(index, tee.SlopeRating), nil
}

func (f *FakeHandicaps) HasResultForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error) {
	_, ok := f.Posted[postedKey(playerID, roundID)]
	return ok, nil
}

func (f *FakeHandicaps) History(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.IndexSnapshot, error) {
	return nil, nil
}

// FakePublisher records published events.
type FakePublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

type PublishedEvent struct {
	Topic   string
	Payload any
}

func (f *FakePublisher) PublishJSON(ctx context.Context, topic string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, PublishedEvent{Topic: topic, Payload: payload})
	return nil
}

func (f *FakePublisher) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, len(f.Events))
	for i, e := range f.Events {
		topics[i] = e.Topic
	}
	return topics
}
