package rounddb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Round is the server-side record of one round: status, tee ratings, hole
// definitions, and the participant roster with their round-start handicaps
// and (after completion) final scores.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID           sharedtypes.RoundID            `bun:"id,pk,type:uuid"`
	CourseName   string                         `bun:"course_name,notnull"`
	Status       sharedtypes.RoundStatus        `bun:"status,notnull"`
	TeeRating    sharedtypes.TeeRating          `bun:"tee_rating,type:jsonb"`
	Holes        []sharedtypes.HoleDefinition   `bun:"holes,type:jsonb"`
	Participants []Participant                  `bun:"participants,type:jsonb"`
	Nine         sharedtypes.NineSelection      `bun:"nine_selection,nullzero"`
	StartedAt    time.Time                      `bun:"started_at,notnull"`
	CompletedAt  *time.Time                     `bun:"completed_at,nullzero"`
	CreatedAt    time.Time                      `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time                      `bun:",nullzero,notnull,default:current_timestamp"`
}

// Par sums hole pars over the supplied hole numbers (nil means all).
func (r *Round) Par(holeNumbers map[int]bool) int {
	par := 0
	for _, h := range r.Holes {
		if holeNumbers == nil || holeNumbers[h.Number] {
			par += h.Par
		}
	}
	return par
}

// Participant is one roster member, embedded in the round as jsonb.
type Participant struct {
	PlayerID        sharedtypes.PlayerID `json:"player_id"`
	DisplayName     string               `json:"display_name"`
	Position        int                  `json:"position"`
	PlayingHandicap *int                 `json:"playing_handicap,omitempty"`
	CourseHandicap  *int                 `json:"course_handicap,omitempty"`
	GrossScore      *int                 `json:"gross_score,omitempty"`
	AdjustedGross   *int                 `json:"adjusted_gross,omitempty"`
	NetScore        *int                 `json:"net_score,omitempty"`
}

// ScoreEntry is one (participant, hole) row. Optional stat fields keep their
// tracked/set semantics through jsonb.
type ScoreEntry struct {
	bun.BaseModel `bun:"table:score_entries,alias:se"`

	ID                sharedtypes.EntryID      `bun:"id,pk,type:uuid"`
	RoundID           sharedtypes.RoundID      `bun:"round_id,notnull,type:uuid"`
	PlayerID          sharedtypes.PlayerID     `bun:"player_id,notnull"`
	HoleNumber        int                      `bun:"hole_number,notnull"`
	Strokes           *sharedtypes.Strokes     `bun:"strokes,nullzero"`
	Putts             sharedtypes.OptionalInt  `bun:"putts,type:jsonb"`
	FairwayHit        sharedtypes.OptionalBool `bun:"fairway_hit,type:jsonb"`
	GreenInRegulation sharedtypes.OptionalBool `bun:"green_in_regulation,type:jsonb"`
	UpdatedAt         time.Time                `bun:",nullzero,notnull,default:current_timestamp"`
}

// ScoreEditRecord is the append-only audit trail for post-completion score
// corrections.
type ScoreEditRecord struct {
	bun.BaseModel `bun:"table:score_edits,alias:sed"`

	ID         int64                    `bun:"id,pk,autoincrement"`
	RoundID    sharedtypes.RoundID      `bun:"round_id,notnull,type:uuid"`
	EntryID    sharedtypes.EntryID      `bun:"entry_id,notnull,type:uuid"`
	PlayerID   sharedtypes.PlayerID     `bun:"player_id,notnull"`
	OldStrokes *sharedtypes.Strokes     `bun:"old_strokes,nullzero"`
	NewStrokes *sharedtypes.Strokes     `bun:"new_strokes,nullzero"`
	OldPutts   sharedtypes.OptionalInt  `bun:"old_putts,type:jsonb"`
	NewPutts   sharedtypes.OptionalInt  `bun:"new_putts,type:jsonb"`
	Editor     string                   `bun:"editor,notnull"`
	Reason     string                   `bun:"reason,notnull"`
	CreatedAt  time.Time                `bun:",nullzero,notnull,default:current_timestamp"`
}
