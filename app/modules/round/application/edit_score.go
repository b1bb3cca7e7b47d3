package roundservice

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/events"
	handicapmath "github.com/fairway-collective/scorekeeper/app/modules/handicap/domain"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// EditCompletedScore corrects one entry of a completed round. The audit
// record, the entry rewrite, and the handicap recomputation commit together;
// an edit is never applied without its audit trail.
func (s *RoundService) EditCompletedScore(ctx context.Context, input EditScoreInput) (results.OperationResult[EditOutcome, EditFailure], error) {
	return withTelemetry(s, ctx, "EditCompletedScore", input.RoundID, func(ctx context.Context) (results.OperationResult[EditOutcome, EditFailure], error) {
		if input.Editor == "" {
			return results.Fail[EditOutcome, EditFailure](EditFailure{Reason: reasonMissingEditor}), nil
		}
		if input.Reason == "" {
			return results.Fail[EditOutcome, EditFailure](EditFailure{Reason: reasonMissingReason}), nil
		}
		if input.NewStrokes != nil && !input.NewStrokes.Valid() {
			return results.Fail[EditOutcome, EditFailure](EditFailure{Reason: reasonInvalidStrokes}), nil
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[EditOutcome, EditFailure], error) {
			round, err := s.repo.GetRound(ctx, db, input.RoundID)
			if err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}
			if round.Status != sharedtypes.RoundStatusCompleted {
				return results.Fail[EditOutcome, EditFailure](EditFailure{Reason: reasonRoundNotCompleted}), nil
			}

			entry, err := s.repo.GetEntry(ctx, db, input.EntryID)
			if err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}
			if entry.RoundID != input.RoundID {
				return results.Fail[EditOutcome, EditFailure](EditFailure{Reason: reasonUnknownEntry}), nil
			}

			rec := &rounddb.ScoreEditRecord{
				RoundID:    input.RoundID,
				EntryID:    entry.ID,
				PlayerID:   entry.PlayerID,
				OldStrokes: entry.Strokes,
				OldPutts:   entry.Putts,
				Editor:     input.Editor,
				Reason:     input.Reason,
			}
			if input.NewStrokes != nil {
				entry.Strokes = input.NewStrokes
			}
			if input.NewPutts != nil {
				entry.Putts = *input.NewPutts
			}
			rec.NewStrokes = entry.Strokes
			rec.NewPutts = entry.Putts

			if err := s.repo.InsertEditRecord(ctx, db, rec); err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}
			if err := s.repo.UpdateEntry(ctx, db, entry); err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}

			pr, err := s.recomputePlayerResult(ctx, db, round, entry.PlayerID)
			if err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}

			if err := s.repo.UpdateRound(ctx, db, round); err != nil {
				return results.OperationResult[EditOutcome, EditFailure]{}, err
			}

			return results.Ok[EditOutcome, EditFailure](EditOutcome{Entry: entry, Result: pr}), nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		outcome := result.Success
		s.publishEvent(ctx, events.ScoreEditedTopic, events.ScoreEditedPayload{
			RoundID:  input.RoundID,
			EntryID:  outcome.Entry.ID,
			PlayerID: outcome.Entry.PlayerID,
			Editor:   input.Editor,
		})
		if outcome.Result.Index != nil {
			s.publishEvent(ctx, events.HandicapUpdatedTopic, events.HandicapUpdatedPayload{
				PlayerID:     outcome.Result.PlayerID,
				Index:        *outcome.Result.Index,
				ComputedFrom: outcome.Result.ComputedFrom,
			})
		}
		return result, nil
	})
}

// recomputePlayerResult rebuilds one player's final numbers from the stored
// entries and replaces their differential for the round. The participant's
// fields on round are updated in place; the caller persists the round.
func (s *RoundService) recomputePlayerResult(ctx context.Context, db bun.IDB, round *rounddb.Round, playerID sharedtypes.PlayerID) (PlayerResult, error) {
	holes, _ := holesInPlay(round, round.Nine)
	nineHole := len(holes) <= 9

	entries, err := s.repo.GetEntriesForRound(ctx, db, round.ID)
	if err != nil {
		return PlayerResult{}, err
	}

	strokesByHole := make(map[int]sharedtypes.Strokes)
	for _, e := range entries {
		if e.PlayerID == playerID && e.Strokes != nil {
			strokesByHole[e.HoleNumber] = *e.Strokes
		}
	}

	var participant *rounddb.Participant
	for i := range round.Participants {
		if round.Participants[i].PlayerID == playerID {
			participant = &round.Participants[i]
			break
		}
	}

	var recorded *int
	if participant != nil {
		recorded = participant.CourseHandicap
	}
	courseHcp, err := s.handicaps.ResolveCourseHandicap(ctx, db, playerID, recorded, round.TeeRating)
	if err != nil {
		return PlayerResult{}, err
	}

	gross := 0
	holeScores := make([]handicapmath.HoleScore, 0, len(holes))
	for _, h := range holes {
		strokes := int(strokesByHole[h.Number])
		gross += strokes
		holeScores = append(holeScores, handicapmath.HoleScore{Strokes: strokes, Par: h.Par})
	}
	adjusted := handicapmath.EquitableStrokeControl(holeScores, courseHcp)
	net := gross - courseHcp

	rr, err := s.handicaps.RecomputeAfterEdit(ctx, db, playerID, round.ID, adjusted, round.TeeRating, nineHole)
	if err != nil {
		return PlayerResult{}, err
	}

	if participant != nil {
		participant.CourseHandicap = &courseHcp
		participant.GrossScore = &gross
		participant.AdjustedGross = &adjusted
		participant.NetScore = &net
	}

	return PlayerResult{
		PlayerID:       playerID,
		CourseHandicap: courseHcp,
		GrossScore:     gross,
		AdjustedGross:  adjusted,
		NetScore:       net,
		Differential:   rr.Differential,
		Index:          rr.Index,
		ComputedFrom:   rr.ComputedFrom,
	}, nil
}
