// Package roundservice implements the server-side round workflows: accepting
// batched score writes, completing rounds into handicap results, and the
// audited post-completion edit path.
package roundservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	handicapservice "github.com/fairway-collective/scorekeeper/app/modules/handicap/application"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/metrics"
	"github.com/fairway-collective/scorekeeper/app/shared/results"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Publisher publishes domain events. Implemented by the eventbus package;
// tests supply a fake.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, payload any) error
}

// RoundService implements the Service interface.
type RoundService struct {
	repo      rounddb.Repository
	handicaps handicapservice.Service
	publisher Publisher
	logger    *slog.Logger
	metrics   metrics.Recorder
	tracer    trace.Tracer
	db        *bun.DB
}

// NewRoundService creates a new RoundService.
func NewRoundService(
	repo rounddb.Repository,
	handicaps handicapservice.Service,
	publisher Publisher,
	logger *slog.Logger,
	recorder metrics.Recorder,
	tracer trace.Tracer,
	db *bun.DB,
) *RoundService {
	return &RoundService{
		repo:      repo,
		handicaps: handicaps,
		publisher: publisher,
		logger:    logger,
		metrics:   recorder,
		tracer:    tracer,
		db:        db,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[S any, F any](
	s *RoundService,
	ctx context.Context,
	operationName string,
	roundID sharedtypes.RoundID,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("round_id", roundID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "critical panic recovered",
				attr.RoundID("round_id", roundID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "operation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.RoundID("round_id", roundID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.RoundID("round_id", roundID),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed",
			attr.String("operation", operationName),
			attr.RoundID("round_id", roundID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction. A nil db (tests)
// runs the operation against whatever IDB the repositories default to.
func runInTx[S any, F any](
	s *RoundService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// publishEvent sends a domain event, logging instead of failing the operation
// when the bus is unavailable. State is already committed by the time events
// go out.
func (s *RoundService) publishEvent(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, topic, payload); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}

// GetRound retrieves a round with its entries.
func (s *RoundService) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (*rounddb.Round, []rounddb.ScoreEntry, error) {
	round, err := s.repo.GetRound(ctx, nil, roundID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.GetEntriesForRound(ctx, nil, roundID)
	if err != nil {
		return nil, nil, err
	}
	return round, entries, nil
}

// EditHistory lists the audit trail for a round, oldest first.
func (s *RoundService) EditHistory(ctx context.Context, roundID sharedtypes.RoundID) ([]rounddb.ScoreEditRecord, error) {
	return s.repo.ListEditRecords(ctx, nil, roundID)
}
