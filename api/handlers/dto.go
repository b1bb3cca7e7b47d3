package handlers

import (
	"time"

	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// CreateRoundRequest is the POST /rounds body.
type CreateRoundRequest struct {
	CourseName   string                         `json:"course_name"`
	Tee          sharedtypes.TeeRating          `json:"tee"`
	Holes        []sharedtypes.HoleDefinition   `json:"holes"`
	Participants []ParticipantRequest           `json:"participants"`
}

// ParticipantRequest is one roster member in a create request.
type ParticipantRequest struct {
	PlayerID        sharedtypes.PlayerID `json:"player_id"`
	DisplayName     string               `json:"display_name"`
	PlayingHandicap *int                 `json:"playing_handicap,omitempty"`
}

// RoundResponse is the wire shape of a round.
type RoundResponse struct {
	ID           sharedtypes.RoundID          `json:"id"`
	CourseName   string                       `json:"course_name"`
	Status       sharedtypes.RoundStatus      `json:"status"`
	Tee          sharedtypes.TeeRating        `json:"tee"`
	Holes        []sharedtypes.HoleDefinition `json:"holes"`
	Participants []rounddb.Participant        `json:"participants"`
	Nine         sharedtypes.NineSelection    `json:"nine,omitempty"`
	StartedAt    time.Time                    `json:"started_at"`
	CompletedAt  *time.Time                   `json:"completed_at,omitempty"`
	Entries      []EntryResponse              `json:"entries,omitempty"`
}

// EntryResponse is the wire shape of one score entry.
type EntryResponse struct {
	ID                sharedtypes.EntryID      `json:"id"`
	PlayerID          sharedtypes.PlayerID     `json:"player_id"`
	HoleNumber        int                      `json:"hole_number"`
	Strokes           *sharedtypes.Strokes     `json:"strokes,omitempty"`
	Putts             sharedtypes.OptionalInt  `json:"putts"`
	FairwayHit        sharedtypes.OptionalBool `json:"fairway_hit"`
	GreenInRegulation sharedtypes.OptionalBool `json:"green_in_regulation"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// SaveBatchRequest is the POST /rounds/{roundID}/scores body.
type SaveBatchRequest struct {
	Updates []sharedtypes.ScoreEntryUpdate `json:"updates"`
}

// CompleteRoundRequest is the POST /rounds/{roundID}/complete body.
type CompleteRoundRequest struct {
	Nine sharedtypes.NineSelection `json:"nine,omitempty"`
}

// PlayerResultResponse is one player's final numbers.
type PlayerResultResponse struct {
	PlayerID       sharedtypes.PlayerID `json:"player_id"`
	CourseHandicap int                  `json:"course_handicap"`
	GrossScore     int                  `json:"gross_score"`
	AdjustedGross  int                  `json:"adjusted_gross"`
	NetScore       int                  `json:"net_score"`
	Differential   float64              `json:"differential"`
	HandicapIndex  *float64             `json:"handicap_index,omitempty"`
}

// CompleteRoundResponse is the completion result.
type CompleteRoundResponse struct {
	Round   RoundResponse          `json:"round"`
	Results []PlayerResultResponse `json:"results"`
}

// EditScoreRequest is the POST /rounds/{roundID}/edits body.
type EditScoreRequest struct {
	EntryID    sharedtypes.EntryID       `json:"entry_id"`
	NewStrokes *sharedtypes.Strokes      `json:"new_strokes,omitempty"`
	NewPutts   *sharedtypes.OptionalInt  `json:"new_putts,omitempty"`
	Editor     string                    `json:"editor"`
	Reason     string                    `json:"reason"`
}

// EditRecordResponse is one audit trail record.
type EditRecordResponse struct {
	EntryID    sharedtypes.EntryID  `json:"entry_id"`
	PlayerID   sharedtypes.PlayerID `json:"player_id"`
	OldStrokes *sharedtypes.Strokes `json:"old_strokes,omitempty"`
	NewStrokes *sharedtypes.Strokes `json:"new_strokes,omitempty"`
	Editor     string               `json:"editor"`
	Reason     string               `json:"reason"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ErrorResponse carries a domain rejection to the client.
type ErrorResponse struct {
	Error        string               `json:"error"`
	PlayerID     sharedtypes.PlayerID `json:"player_id,omitempty"`
	MissingHoles int                  `json:"missing_holes,omitempty"`
}

func roundResponse(round *rounddb.Round, entries []rounddb.ScoreEntry) RoundResponse {
	resp := RoundResponse{
		ID:           round.ID,
		CourseName:   round.CourseName,
		Status:       round.Status,
		Tee:          round.TeeRating,
		Holes:        round.Holes,
		Participants: round.Participants,
		Nine:         round.Nine,
		StartedAt:    round.StartedAt,
		CompletedAt:  round.CompletedAt,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			ID:                e.ID,
			PlayerID:          e.PlayerID,
			HoleNumber:        e.HoleNumber,
			Strokes:           e.Strokes,
			Putts:             e.Putts,
			FairwayHit:        e.FairwayHit,
			GreenInRegulation: e.GreenInRegulation,
			UpdatedAt:         e.UpdatedAt,
		})
	}
	return resp
}
