package roundservice

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"github.com/fairway-collective/scorekeeper/app/events"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// SaveScoreBatch applies a batched score write to an in-progress round. The
// batch is all-or-nothing: one unknown entry id or invalid stroke count
// rejects the whole batch and nothing is written.
func (s *RoundService) SaveScoreBatch(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (results.OperationResult[sharedtypes.BatchResult, BatchFailure], error) {
	return withTelemetry(s, ctx, "SaveScoreBatch", roundID, func(ctx context.Context) (results.OperationResult[sharedtypes.BatchResult, BatchFailure], error) {
		if len(updates) == 0 {
			return results.Fail[sharedtypes.BatchResult, BatchFailure](BatchFailure{Reason: reasonEmptyBatch}), nil
		}
		for _, u := range updates {
			if u.Strokes != nil && !u.Strokes.Valid() {
				return results.Fail[sharedtypes.BatchResult, BatchFailure](BatchFailure{Reason: reasonInvalidStrokes}), nil
			}
		}

		s.metrics.RecordBatchSize(ctx, len(updates))

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[sharedtypes.BatchResult, BatchFailure], error) {
			round, err := s.repo.GetRound(ctx, db, roundID)
			if err != nil {
				return results.OperationResult[sharedtypes.BatchResult, BatchFailure]{}, err
			}
			if round.Status != sharedtypes.RoundStatusInProgress {
				return results.Fail[sharedtypes.BatchResult, BatchFailure](BatchFailure{Reason: reasonRoundNotInProgress}), nil
			}

			accepted, serverTime, err := s.repo.UpsertEntryBatch(ctx, db, roundID, updates)
			if err != nil {
				if errors.Is(err, rounddb.ErrEntryNotInRound) {
					return results.Fail[sharedtypes.BatchResult, BatchFailure](BatchFailure{Reason: reasonUnknownEntry}), nil
				}
				return results.OperationResult[sharedtypes.BatchResult, BatchFailure]{}, err
			}

			return results.Ok[sharedtypes.BatchResult, BatchFailure](sharedtypes.BatchResult{
				AcceptedEntryIDs: accepted,
				ServerTime:       serverTime,
			}), nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		s.publishEvent(ctx, events.ScoreBatchSavedTopic, events.ScoreBatchSavedPayload{
			RoundID:    roundID,
			EntryIDs:   result.Success.AcceptedEntryIDs,
			ServerTime: result.Success.ServerTime,
		})
		return result, nil
	})
}
