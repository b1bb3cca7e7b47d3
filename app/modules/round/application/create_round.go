package roundservice

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// CreateRound opens a round and lays down the full score grid: one blank
// entry per participant per hole.
func (s *RoundService) CreateRound(ctx context.Context, input CreateRoundInput) (results.OperationResult[CreatedRound, RoundFailure], error) {
	roundID := sharedtypes.RoundID(uuid.New())
	return withTelemetry(s, ctx, "CreateRound", roundID, func(ctx context.Context) (results.OperationResult[CreatedRound, RoundFailure], error) {
		if len(input.Participants) == 0 {
			return results.Fail[CreatedRound, RoundFailure](RoundFailure{Reason: reasonNoParticipants}), nil
		}
		if len(input.Holes) == 0 {
			return results.Fail[CreatedRound, RoundFailure](RoundFailure{Reason: reasonNoHoles}), nil
		}

		holes := make([]sharedtypes.HoleDefinition, len(input.Holes))
		copy(holes, input.Holes)
		sort.Slice(holes, func(i, j int) bool { return holes[i].Number < holes[j].Number })

		participants := make([]rounddb.Participant, len(input.Participants))
		copy(participants, input.Participants)
		for i := range participants {
			if participants[i].Position == 0 {
				participants[i].Position = i + 1
			}
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[CreatedRound, RoundFailure], error) {
			now := time.Now().UTC()
			round := &rounddb.Round{
				ID:           roundID,
				CourseName:   input.CourseName,
				Status:       sharedtypes.RoundStatusInProgress,
				TeeRating:    input.Tee,
				Holes:        holes,
				Participants: participants,
				StartedAt:    now,
			}
			if err := s.repo.CreateRound(ctx, db, round); err != nil {
				return results.OperationResult[CreatedRound, RoundFailure]{}, err
			}

			entries := make([]rounddb.ScoreEntry, 0, len(participants)*len(holes))
			for _, p := range participants {
				for _, h := range holes {
					entries = append(entries, rounddb.ScoreEntry{
						ID:         sharedtypes.EntryID(uuid.New()),
						RoundID:    roundID,
						PlayerID:   p.PlayerID,
						HoleNumber: h.Number,
					})
				}
			}
			if err := s.repo.CreateEntries(ctx, db, entries); err != nil {
				return results.OperationResult[CreatedRound, RoundFailure]{}, err
			}

			return results.Ok[CreatedRound, RoundFailure](CreatedRound{Round: round, Entries: entries}), nil
		})
	})
}
