package roundservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/events"
	handicapmath "github.com/fairway-collective/scorekeeper/app/modules/handicap/domain"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// holesInPlay resolves which holes count for completion. An empty selection
// means the whole card; FRONT/BACK are only meaningful on an eighteen-hole
// round.
func holesInPlay(round *rounddb.Round, nine sharedtypes.NineSelection) ([]sharedtypes.HoleDefinition, bool) {
	if nine == sharedtypes.NineNone {
		return round.Holes, true
	}
	if len(round.Holes) != 18 {
		return nil, false
	}
	var holes []sharedtypes.HoleDefinition
	for _, h := range round.Holes {
		switch nine {
		case sharedtypes.NineFront:
			if h.Number <= 9 {
				holes = append(holes, h)
			}
		case sharedtypes.NineBack:
			if h.Number >= 10 {
				holes = append(holes, h)
			}
		}
	}
	return holes, true
}

// CompleteRound finalizes an in-progress round. Every participant must have a
// stroke count on every hole in play before anything is written; one
// incomplete scorecard fails the whole completion. For each player the flow
// is: resolve course handicap, apply equitable stroke control, post the score
// differential, refresh the handicap index. Players who already have a
// differential for this round keep it, so a retried completion never posts a
// result twice.
func (s *RoundService) CompleteRound(ctx context.Context, roundID sharedtypes.RoundID, nine sharedtypes.NineSelection) (results.OperationResult[CompletedRound, CompletionFailure], error) {
	return withTelemetry(s, ctx, "CompleteRound", roundID, func(ctx context.Context) (results.OperationResult[CompletedRound, CompletionFailure], error) {
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[CompletedRound, CompletionFailure], error) {
			round, err := s.repo.GetRound(ctx, db, roundID)
			if err != nil {
				return results.OperationResult[CompletedRound, CompletionFailure]{}, err
			}
			if round.Status != sharedtypes.RoundStatusInProgress {
				return results.Fail[CompletedRound, CompletionFailure](CompletionFailure{Reason: reasonRoundNotInProgress}), nil
			}

			holes, ok := holesInPlay(round, nine)
			if !ok {
				return results.Fail[CompletedRound, CompletionFailure](CompletionFailure{Reason: reasonNoNineToSelect}), nil
			}
			nineHole := len(holes) <= 9

			entries, err := s.repo.GetEntriesForRound(ctx, db, roundID)
			if err != nil {
				return results.OperationResult[CompletedRound, CompletionFailure]{}, err
			}

			inPlay := make(map[int]bool, len(holes))
			for _, h := range holes {
				inPlay[h.Number] = true
			}
			parByHole := make(map[int]int, len(holes))
			for _, h := range holes {
				parByHole[h.Number] = h.Par
			}

			strokesByPlayer := make(map[sharedtypes.PlayerID]map[int]sharedtypes.Strokes)
			for _, e := range entries {
				if !inPlay[e.HoleNumber] || e.Strokes == nil {
					continue
				}
				if strokesByPlayer[e.PlayerID] == nil {
					strokesByPlayer[e.PlayerID] = make(map[int]sharedtypes.Strokes)
				}
				strokesByPlayer[e.PlayerID][e.HoleNumber] = *e.Strokes
			}

			// Completeness gates every write: no player's result is posted
			// until every player's card is full.
			for _, p := range round.Participants {
				missing := len(holes) - len(strokesByPlayer[p.PlayerID])
				if missing > 0 {
					return results.Fail[CompletedRound, CompletionFailure](CompletionFailure{
						Reason:       reasonIncompleteScores,
						PlayerID:     p.PlayerID,
						MissingHoles: missing,
					}), nil
				}
			}

			playerResults := make([]PlayerResult, 0, len(round.Participants))
			for i := range round.Participants {
				p := &round.Participants[i]

				courseHcp, err := s.handicaps.ResolveCourseHandicap(ctx, db, p.PlayerID, p.PlayingHandicap, round.TeeRating)
				if err != nil {
					return results.OperationResult[CompletedRound, CompletionFailure]{}, err
				}

				gross := 0
				holeScores := make([]handicapmath.HoleScore, 0, len(holes))
				for _, h := range holes {
					strokes := int(strokesByPlayer[p.PlayerID][h.Number])
					gross += strokes
					holeScores = append(holeScores, handicapmath.HoleScore{Strokes: strokes, Par: h.Par})
				}
				adjusted := handicapmath.EquitableStrokeControl(holeScores, courseHcp)
				net := gross - courseHcp

				pr := PlayerResult{
					PlayerID:       p.PlayerID,
					CourseHandicap: courseHcp,
					GrossScore:     gross,
					AdjustedGross:  adjusted,
					NetScore:       net,
				}

				posted, err := s.handicaps.HasResultForRound(ctx, db, p.PlayerID, roundID)
				if err != nil {
					return results.OperationResult[CompletedRound, CompletionFailure]{}, err
				}
				if posted {
					// Retried completion after a partial failure: the
					// differential is deterministic, recompute for the
					// payload without posting again.
					if nineHole {
						pr.Differential = handicapmath.NineHoleScoreDifferential(adjusted, round.TeeRating.CourseRating, round.TeeRating.SlopeRating)
					} else {
						pr.Differential = handicapmath.ScoreDifferential(adjusted, round.TeeRating.CourseRating, round.TeeRating.SlopeRating)
					}
					s.logger.InfoContext(ctx, "differential already posted, skipping",
						attr.RoundID("round_id", roundID),
						attr.PlayerID("player_id", p.PlayerID),
					)
				} else {
					rr, err := s.handicaps.RecordRoundResult(ctx, db, p.PlayerID, roundID, adjusted, round.TeeRating, nineHole)
					if err != nil {
						return results.OperationResult[CompletedRound, CompletionFailure]{}, err
					}
					pr.Differential = rr.Differential
					pr.Index = rr.Index
					pr.ComputedFrom = rr.ComputedFrom
				}

				p.CourseHandicap = &courseHcp
				p.GrossScore = &pr.GrossScore
				p.AdjustedGross = &pr.AdjustedGross
				p.NetScore = &pr.NetScore

				playerResults = append(playerResults, pr)
			}

			now := time.Now().UTC()
			round.Status = sharedtypes.RoundStatusCompleted
			round.Nine = nine
			round.CompletedAt = &now
			if err := s.repo.UpdateRound(ctx, db, round); err != nil {
				return results.OperationResult[CompletedRound, CompletionFailure]{}, err
			}

			return results.Ok[CompletedRound, CompletionFailure](CompletedRound{Round: round, Results: playerResults}), nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		completed := result.Success
		payload := events.RoundCompletedPayload{
			RoundID:     roundID,
			CourseName:  completed.Round.CourseName,
			Nine:        nine,
			CompletedAt: *completed.Round.CompletedAt,
		}
		for _, pr := range completed.Results {
			payload.Results = append(payload.Results, events.PlayerResultPayload{
				PlayerID:      pr.PlayerID,
				GrossScore:    pr.GrossScore,
				AdjustedGross: pr.AdjustedGross,
				NetScore:      pr.NetScore,
				Differential:  pr.Differential,
			})
		}
		s.publishEvent(ctx, events.RoundCompletedTopic, payload)

		for _, pr := range completed.Results {
			if pr.Index == nil {
				continue
			}
			s.publishEvent(ctx, events.HandicapUpdatedTopic, events.HandicapUpdatedPayload{
				PlayerID:     pr.PlayerID,
				Index:        *pr.Index,
				ComputedFrom: pr.ComputedFrom,
			})
		}

		return result, nil
	})
}

// AbandonRound ends a round without posting any scores or differentials.
func (s *RoundService) AbandonRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult[AbandonedRound, RoundFailure], error) {
	return withTelemetry(s, ctx, "AbandonRound", roundID, func(ctx context.Context) (results.OperationResult[AbandonedRound, RoundFailure], error) {
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[AbandonedRound, RoundFailure], error) {
			round, err := s.repo.GetRound(ctx, db, roundID)
			if err != nil {
				return results.OperationResult[AbandonedRound, RoundFailure]{}, err
			}
			if round.Status != sharedtypes.RoundStatusInProgress {
				return results.Fail[AbandonedRound, RoundFailure](RoundFailure{Reason: reasonRoundNotInProgress}), nil
			}

			round.Status = sharedtypes.RoundStatusAbandoned
			if err := s.repo.UpdateRound(ctx, db, round); err != nil {
				return results.OperationResult[AbandonedRound, RoundFailure]{}, err
			}
			return results.Ok[AbandonedRound, RoundFailure](AbandonedRound{Round: round}), nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		s.publishEvent(ctx, events.RoundAbandonedTopic, events.RoundAbandonedPayload{
			RoundID:     roundID,
			AbandonedAt: time.Now().UTC(),
		})
		return result, nil
	})
}
