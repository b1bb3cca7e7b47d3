// Package events defines the message topics and payloads published on the
// event bus. Payloads are JSON-encoded on the wire.
package events

import (
	"time"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Topics. The segment before the first dot names the JetStream stream.
const (
	ScoreBatchSavedTopic = "score.batch.saved"
	RoundCompletedTopic  = "round.completed"
	RoundAbandonedTopic  = "round.abandoned"
	ScoreEditedTopic     = "score.edited"
	HandicapUpdatedTopic = "handicap.updated"
)

// ScoreBatchSavedPayload announces an accepted batched score write.
type ScoreBatchSavedPayload struct {
	RoundID    sharedtypes.RoundID   `json:"round_id"`
	EntryIDs   []sharedtypes.EntryID `json:"entry_ids"`
	ServerTime time.Time             `json:"server_time"`
}

// PlayerResultPayload is one player's final numbers for a completed round.
type PlayerResultPayload struct {
	PlayerID      sharedtypes.PlayerID `json:"player_id"`
	GrossScore    int                  `json:"gross_score"`
	AdjustedGross int                  `json:"adjusted_gross"`
	NetScore      int                  `json:"net_score"`
	Differential  float64              `json:"differential"`
}

// RoundCompletedPayload announces a finalized round with per-player results.
type RoundCompletedPayload struct {
	RoundID     sharedtypes.RoundID       `json:"round_id"`
	CourseName  string                    `json:"course_name"`
	Nine        sharedtypes.NineSelection `json:"nine,omitempty"`
	CompletedAt time.Time                 `json:"completed_at"`
	Results     []PlayerResultPayload     `json:"results"`
}

// RoundAbandonedPayload announces a round that ended without scoring.
type RoundAbandonedPayload struct {
	RoundID     sharedtypes.RoundID `json:"round_id"`
	AbandonedAt time.Time           `json:"abandoned_at"`
}

// ScoreEditedPayload announces an audited post-completion correction.
type ScoreEditedPayload struct {
	RoundID  sharedtypes.RoundID  `json:"round_id"`
	EntryID  sharedtypes.EntryID  `json:"entry_id"`
	PlayerID sharedtypes.PlayerID `json:"player_id"`
	Editor   string               `json:"editor"`
}

// HandicapUpdatedPayload announces a fresh index snapshot for a player.
type HandicapUpdatedPayload struct {
	PlayerID     sharedtypes.PlayerID `json:"player_id"`
	Index        float64              `json:"index"`
	ComputedFrom int                  `json:"computed_from"`
}
