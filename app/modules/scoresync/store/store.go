// Package scorestore holds the authoritative client-side state for one
// round's in-progress scoring. The store is synchronous: every mutation
// updates dirty flags, the current-hole cursor, and derived totals before
// returning, independent of any network activity. One store instance exists
// per open round session; it is constructed explicitly and passed by
// reference, never accessed as ambient global state.
package scorestore

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/clock"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// SessionState tracks the save lifecycle of the store. Saving never blocks
// edits: a mutation during or after a save simply moves the state back to
// StateActive.
type SessionState string

const (
	StateUninitialized SessionState = "UNINITIALIZED"
	StateActive        SessionState = "ACTIVE"
	StateSaved         SessionState = "SAVED"
	StateError         SessionState = "ERROR"
)

// Entry is one (participant, hole) score record. Original is the last known
// server value; Current is the local edit. The entry is dirty exactly when
// the two differ.
type Entry struct {
	ID            sharedtypes.EntryID
	ParticipantID sharedtypes.PlayerID
	HoleNumber    int
	Original      sharedtypes.ScoreSnapshot
	Current       sharedtypes.ScoreSnapshot
	ModifiedAt    time.Time
}

// Dirty reports whether the current snapshot differs from the original.
func (e Entry) Dirty() bool {
	return !e.Current.Equal(e.Original)
}

// Participant is a roster member plus display position and the playing
// handicap recorded at round start (nil when none was recorded).
type Participant struct {
	ID              sharedtypes.PlayerID
	DisplayName     string
	Position        int
	PlayingHandicap *int
}

// Snapshot is the full exported state of a store: enough to rebuild it
// byte-for-byte, and what the durable local backup persists.
type Snapshot struct {
	RoundID          sharedtypes.RoundID           `json:"round_id"`
	Holes            []sharedtypes.HoleDefinition  `json:"holes"`
	Participants     []Participant                 `json:"participants"`
	Entries          []Entry                       `json:"entries"`
	ParticipantOrder []sharedtypes.PlayerID        `json:"participant_order"`
	LastModified     time.Time                     `json:"last_modified"`
}

type cellKey struct {
	participant sharedtypes.PlayerID
	hole        int
}

// MutationHook is invoked synchronously after every mutation with a deep
// copy of the new state. The persistence bridge uses it to write the durable
// backup and arm the debounced save.
type MutationHook func(Snapshot)

// Store is the single source of truth for one round's in-progress scoring.
// All methods are safe to call from timer callbacks, input handlers, and
// connectivity handlers interleaved arbitrarily.
type Store struct {
	mu sync.Mutex

	clk    clock.Clock
	logger *slog.Logger

	roundID      sharedtypes.RoundID
	holes        []sharedtypes.HoleDefinition
	participants []Participant
	entries      map[sharedtypes.EntryID]*Entry
	byCell       map[cellKey]*Entry
	order        []sharedtypes.PlayerID

	currentHole  int
	lastModified time.Time
	state        SessionState

	hook MutationHook
}

// New returns an uninitialized store. Initialize must be called before any
// score operation.
func New(clk clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		clk:    clk,
		logger: logger,
		state:  StateUninitialized,
	}
}

// SetMutationHook registers the post-mutation callback. Pass nil to clear.
func (s *Store) SetMutationHook(h MutationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Initialize replaces all store state with the supplied round. Entries carry
// both snapshots, so a caller reconciling a resumed session supplies
// original = server value and current = preferred value; dirty flags fall
// out of the difference. participantOrder may be nil, in which case roster
// position order is used.
func (s *Store) Initialize(
	roundID sharedtypes.RoundID,
	holes []sharedtypes.HoleDefinition,
	participants []Participant,
	entries []Entry,
	participantOrder []sharedtypes.PlayerID,
) error {
	if roundID.IsNil() {
		return fmt.Errorf("initialize: %w", ErrNoRound)
	}
	if len(holes) == 0 {
		return fmt.Errorf("initialize: round %s has no holes", roundID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[sharedtypes.EntryID]*Entry, len(entries))
	byCell := make(map[cellKey]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		key := cellKey{participant: e.ParticipantID, hole: e.HoleNumber}
		if _, dup := byCell[key]; dup {
			return fmt.Errorf("initialize: duplicate entry for participant %s hole %d", e.ParticipantID, e.HoleNumber)
		}
		byID[e.ID] = &e
		byCell[key] = &e
	}

	for _, p := range participants {
		for _, h := range holes {
			if _, ok := byCell[cellKey{participant: p.ID, hole: h.Number}]; !ok {
				return fmt.Errorf("initialize: missing entry for participant %s hole %d", p.ID, h.Number)
			}
		}
	}

	if participantOrder == nil {
		ordered := make([]Participant, len(participants))
		copy(ordered, participants)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
		participantOrder = make([]sharedtypes.PlayerID, len(ordered))
		for i, p := range ordered {
			participantOrder[i] = p.ID
		}
	}

	s.roundID = roundID
	s.holes = append([]sharedtypes.HoleDefinition(nil), holes...)
	sort.Slice(s.holes, func(i, j int) bool { return s.holes[i].Number < s.holes[j].Number })
	s.participants = append([]Participant(nil), participants...)
	s.entries = byID
	s.byCell = byCell
	s.order = append([]sharedtypes.PlayerID(nil), participantOrder...)
	s.lastModified = s.clk.Now()
	s.state = StateActive
	s.recomputeCursorLocked()

	s.logger.Info("score store initialized",
		attr.RoundID("round_id", roundID),
		attr.Int("participants", len(participants)),
		attr.Int("entries", len(entries)),
	)
	return nil
}

// RoundID returns the round this store holds.
func (s *Store) RoundID() sharedtypes.RoundID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundID
}

// State returns the save lifecycle state.
func (s *Store) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentHole returns the cursor: the lowest-numbered hole for which not all
// participants have a stroke value, or the last hole when every hole is
// complete.
func (s *Store) CurrentHole() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentHole
}

// UpdateStrokes sets or clears (value nil) the stroke count for one cell.
func (s *Store) UpdateStrokes(participantID sharedtypes.PlayerID, holeNumber int, value *sharedtypes.Strokes) error {
	if value != nil && !value.Valid() {
		return fmt.Errorf("strokes %d for participant %s hole %d: %w", *value, participantID, holeNumber, ErrInvalidStrokes)
	}
	return s.mutate(participantID, holeNumber, func(e *Entry) {
		if value == nil {
			e.Current.Strokes = nil
			return
		}
		v := *value
		e.Current.Strokes = &v
	})
}

// UpdatePutts sets the putt count for one cell. Passing a tracked-but-unset
// OptionalInt records "tracked, no value yet".
func (s *Store) UpdatePutts(participantID sharedtypes.PlayerID, holeNumber int, value sharedtypes.OptionalInt) error {
	return s.mutate(participantID, holeNumber, func(e *Entry) {
		e.Current.Putts = value
	})
}

// UpdateFairwayHit sets the fairway flag for one cell. Par-3 holes have no
// fairway; the update is rejected for them.
func (s *Store) UpdateFairwayHit(participantID sharedtypes.PlayerID, holeNumber int, value sharedtypes.OptionalBool) error {
	s.mu.Lock()
	var par3 bool
	for _, h := range s.holes {
		if h.Number == holeNumber && h.Par == 3 {
			par3 = true
		}
	}
	s.mu.Unlock()
	if par3 && value.Tracked {
		return fmt.Errorf("hole %d is a par 3: %w", holeNumber, ErrNoFairwayOnPar3)
	}
	return s.mutate(participantID, holeNumber, func(e *Entry) {
		e.Current.FairwayHit = value
	})
}

// UpdateGreenInRegulation sets the GIR flag for one cell.
func (s *Store) UpdateGreenInRegulation(participantID sharedtypes.PlayerID, holeNumber int, value sharedtypes.OptionalBool) error {
	return s.mutate(participantID, holeNumber, func(e *Entry) {
		e.Current.GreenInRegulation = value
	})
}

// mutate applies fn to exactly one entry, stamps modification times,
// recomputes the cursor, and fires the mutation hook outside the lock.
func (s *Store) mutate(participantID sharedtypes.PlayerID, holeNumber int, fn func(*Entry)) error {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	e, ok := s.byCell[cellKey{participant: participantID, hole: holeNumber}]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("participant %s hole %d: %w", participantID, holeNumber, ErrUnknownEntry)
	}

	fn(e)
	now := s.clk.Now()
	e.ModifiedAt = now
	s.lastModified = now
	s.state = StateActive
	s.recomputeCursorLocked()

	hook := s.hook
	var snap Snapshot
	if hook != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return nil
}

// MarkSaved records the server-acknowledged value for each confirmed entry:
// the snapshot that was actually sent becomes the entry's original. An entry
// edited after the batch was captured therefore stays dirty and is resent,
// even when the edit carries the same timestamp as the capture. Entries
// outside the confirmed set are untouched. Idempotent.
func (s *Store) MarkSaved(confirmed []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range confirmed {
		e, ok := s.entries[c.ID]
		if !ok {
			continue
		}
		e.Original = c.Current
	}
	if !s.anyDirtyLocked() {
		s.state = StateSaved
	}
}

// MarkSaveFailed flips the session state to error without touching entries.
// Local data is preserved; the dirty set is untouched.
func (s *Store) MarkSaveFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUninitialized {
		s.state = StateError
	}
}

// DirtyEntries returns copies of every entry whose current snapshot differs
// from its original.
func (s *Store) DirtyEntries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.Dirty() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HoleNumber != out[j].HoleNumber {
			return out[i].HoleNumber < out[j].HoleNumber
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

// Entry returns a copy of the entry for one cell.
func (s *Store) Entry(participantID sharedtypes.PlayerID, holeNumber int) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byCell[cellKey{participant: participantID, hole: holeNumber}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// ExportSnapshot returns a deep copy of the full store state. Feeding it
// back through Initialize reproduces an identical current-snapshot map.
func (s *Store) ExportSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].HoleNumber != entries[j].HoleNumber {
			return entries[i].HoleNumber < entries[j].HoleNumber
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	return Snapshot{
		RoundID:          s.roundID,
		Holes:            append([]sharedtypes.HoleDefinition(nil), s.holes...),
		Participants:     append([]Participant(nil), s.participants...),
		Entries:          entries,
		ParticipantOrder: append([]sharedtypes.PlayerID(nil), s.order...),
		LastModified:     s.lastModified,
	}
}

func (s *Store) anyDirtyLocked() bool {
	for _, e := range s.entries {
		if e.Dirty() {
			return true
		}
	}
	return false
}

func (s *Store) recomputeCursorLocked() {
	if len(s.holes) == 0 {
		s.currentHole = 0
		return
	}
	for _, h := range s.holes {
		complete := true
		for _, p := range s.participants {
			e := s.byCell[cellKey{participant: p.ID, hole: h.Number}]
			if e == nil || e.Current.Strokes == nil {
				complete = false
				break
			}
		}
		if !complete {
			s.currentHole = h.Number
			return
		}
	}
	s.currentHole = s.holes[len(s.holes)-1].Number
}
