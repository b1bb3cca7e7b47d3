package sharedtypes

import (
	"time"

	"github.com/google/uuid"
)

// RoundID uniquely identifies a round.
type RoundID uuid.UUID

func (id RoundID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero uuid.
func (id RoundID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id RoundID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RoundID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RoundID(u)
	return nil
}

// PlayerID uniquely identifies a player across rounds.
type PlayerID string

func (id PlayerID) String() string {
	return string(id)
}

// EntryID uniquely identifies one (participant, hole) score entry.
type EntryID uuid.UUID

func (id EntryID) String() string {
	return uuid.UUID(id).String()
}

func (id EntryID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EntryID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EntryID(u)
	return nil
}

// Strokes is a recorded stroke count for one hole. Valid values are 1..15.
type Strokes int

const MaxStrokesPerHole Strokes = 15

// Valid reports whether s is in the accepted range for a single hole.
func (s Strokes) Valid() bool {
	return s >= 1 && s <= MaxStrokesPerHole
}

// HandicapIndexValue is a player's index, one decimal of precision.
type HandicapIndexValue float64

// RoundStatus is the lifecycle state of a round.
type RoundStatus string

const (
	RoundStatusInProgress RoundStatus = "IN_PROGRESS"
	RoundStatusCompleted  RoundStatus = "COMPLETED"
	RoundStatusAbandoned  RoundStatus = "ABANDONED"
)

// Terminal reports whether no further normal-path score mutation is allowed.
func (s RoundStatus) Terminal() bool {
	return s == RoundStatusCompleted || s == RoundStatusAbandoned
}

// NineSelection names a contiguous nine for nine-hole completion.
type NineSelection string

const (
	NineNone  NineSelection = ""
	NineFront NineSelection = "FRONT"
	NineBack  NineSelection = "BACK"
)

// HoleDefinition is immutable per round: supplied by course management,
// never mutated by this core.
type HoleDefinition struct {
	Number         int `json:"number"`
	Par            int `json:"par"`
	DifficultyRank int `json:"difficulty_rank"`
	DistanceYards  int `json:"distance_yards"`
}

// TeeRating carries the course/slope rating for the tee played.
type TeeRating struct {
	CourseRating float64 `json:"course_rating"`
	SlopeRating  int     `json:"slope_rating"`
}

// OptionalInt distinguishes "not tracked" from "tracked but empty" from a
// real value. Zero value means not tracked.
type OptionalInt struct {
	Tracked bool `json:"tracked"`
	Set     bool `json:"set"`
	Value   int  `json:"value"`
}

// TrackedInt returns a tracked, set OptionalInt.
func TrackedInt(v int) OptionalInt {
	return OptionalInt{Tracked: true, Set: true, Value: v}
}

// TrackedEmptyInt returns a tracked OptionalInt with no value yet.
func TrackedEmptyInt() OptionalInt {
	return OptionalInt{Tracked: true}
}

// OptionalBool mirrors OptionalInt for flag fields (fairway hit, GIR).
type OptionalBool struct {
	Tracked bool `json:"tracked"`
	Set     bool `json:"set"`
	Value   bool `json:"value"`
}

func TrackedBool(v bool) OptionalBool {
	return OptionalBool{Tracked: true, Set: true, Value: v}
}

// ScoreSnapshot is the value portion of a score entry: the fields the player
// edits. Strokes nil means no score recorded yet.
type ScoreSnapshot struct {
	Strokes           *Strokes     `json:"strokes,omitempty"`
	Putts             OptionalInt  `json:"putts"`
	FairwayHit        OptionalBool `json:"fairway_hit"`
	GreenInRegulation OptionalBool `json:"green_in_regulation"`
}

// Equal compares two snapshots field by field.
func (s ScoreSnapshot) Equal(o ScoreSnapshot) bool {
	if (s.Strokes == nil) != (o.Strokes == nil) {
		return false
	}
	if s.Strokes != nil && *s.Strokes != *o.Strokes {
		return false
	}
	return s.Putts == o.Putts && s.FairwayHit == o.FairwayHit && s.GreenInRegulation == o.GreenInRegulation
}

// ScoreEntryUpdate is one element of a batched score write, keyed by entry
// id. Strokes always carries the full value for the entry: nil clears the
// stroke count. Nil Putts, FairwayHit, or GreenInRegulation leave that field
// unchanged.
type ScoreEntryUpdate struct {
	EntryID           EntryID       `json:"entry_id"`
	Strokes           *Strokes      `json:"strokes,omitempty"`
	Putts             *OptionalInt  `json:"putts,omitempty"`
	FairwayHit        *OptionalBool `json:"fairway_hit,omitempty"`
	GreenInRegulation *OptionalBool `json:"green_in_regulation,omitempty"`
}

// BatchResult is what the server round-trips for an accepted batch.
type BatchResult struct {
	AcceptedEntryIDs []EntryID `json:"accepted_entry_ids"`
	ServerTime       time.Time `json:"server_time"`
}
