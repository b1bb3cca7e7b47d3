package handicapdb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Differential is one posted score differential. A player gets at most one
// per round; edits replace the row rather than adding a second.
type Differential struct {
	bun.BaseModel `bun:"table:score_differentials,alias:sd"`

	ID           int64                  `bun:"id,pk,autoincrement"`
	PlayerID     sharedtypes.PlayerID   `bun:"player_id,notnull"`
	RoundID      sharedtypes.RoundID    `bun:"round_id,type:uuid,notnull"`
	Value        float64                `bun:"value,notnull"`
	CourseRating float64                `bun:"course_rating,notnull"`
	SlopeRating  int                    `bun:"slope_rating,notnull"`
	NineHole     bool                   `bun:"nine_hole,notnull,default:false"`
	CreatedAt    time.Time              `bun:"created_at,notnull,default:current_timestamp"`
}

// IndexSnapshot records a handicap index the moment it was computed, along
// with how many differentials fed it.
type IndexSnapshot struct {
	bun.BaseModel `bun:"table:handicap_snapshots,alias:hs"`

	ID           int64                `bun:"id,pk,autoincrement"`
	PlayerID     sharedtypes.PlayerID `bun:"player_id,notnull"`
	Value        float64              `bun:"value,notnull"`
	ComputedFrom int                  `bun:"computed_from,notnull"`
	CreatedAt    time.Time            `bun:"created_at,notnull,default:current_timestamp"`
}
