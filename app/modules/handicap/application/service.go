// Package handicapservice coordinates the handicap pipeline around the pure
// math: posting differentials, maintaining the rolling index, and resolving
// the allowance a player gets on a given tee.
package handicapservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	handicapmath "github.com/fairway-collective/scorekeeper/app/modules/handicap/domain"
	handicapdb "github.com/fairway-collective/scorekeeper/app/modules/handicap/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// RoundResult is the outcome of posting one player's round.
type RoundResult struct {
	Differential float64
	// Index is nil when the player still has fewer than the minimum number
	// of differentials.
	Index        *float64
	ComputedFrom int
}

// Service is the handicap module's application surface. Methods accept a
// bun.IDB so a caller's transaction wraps the differential and snapshot
// writes together.
type Service interface {
	RecordRoundResult(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (RoundResult, error)
	RecomputeAfterEdit(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (RoundResult, error)
	CurrentIndex(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (float64, bool, error)
	ResolveCourseHandicap(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, recordedPlayingHandicap *int, tee sharedtypes.TeeRating) (int, error)
	HasResultForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error)
	History(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.IndexSnapshot, error)
}

// HandicapService implements Service on top of the handicap repository.
type HandicapService struct {
	repo   handicapdb.Repository
	logger *slog.Logger
}

func NewHandicapService(repo handicapdb.Repository, logger *slog.Logger) *HandicapService {
	return &HandicapService{repo: repo, logger: logger}
}

func (s *HandicapService) RecordRoundResult(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (RoundResult, error) {
	value := differentialFor(adjustedGross, tee, nineHole)

	d := &handicapdb.Differential{
		PlayerID:     playerID,
		RoundID:      roundID,
		Value:        value,
		CourseRating: tee.CourseRating,
		SlopeRating:  tee.SlopeRating,
		NineHole:     nineHole,
	}
	if err := s.repo.InsertDifferential(ctx, db, d); err != nil {
		return RoundResult{}, err
	}

	return s.refreshIndex(ctx, db, playerID, value)
}

func (s *HandicapService) RecomputeAfterEdit(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID, adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) (RoundResult, error) {
	value := differentialFor(adjustedGross, tee, nineHole)

	d := &handicapdb.Differential{
		PlayerID:     playerID,
		RoundID:      roundID,
		Value:        value,
		CourseRating: tee.CourseRating,
		SlopeRating:  tee.SlopeRating,
		NineHole:     nineHole,
	}
	if err := s.repo.ReplaceDifferentialForRound(ctx, db, d); err != nil {
		return RoundResult{}, err
	}

	return s.refreshIndex(ctx, db, playerID, value)
}

func (s *HandicapService) refreshIndex(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, diffValue float64) (RoundResult, error) {
	diffs, err := s.repo.RecentDifferentials(ctx, db, playerID, handicapmath.MaxDifferentialsConsidered)
	if err != nil {
		return RoundResult{}, err
	}

	values := make([]float64, len(diffs))
	for i, d := range diffs {
		values[i] = d.Value
	}

	result := RoundResult{Differential: diffValue, ComputedFrom: len(values)}
	index, ok := handicapmath.HandicapIndex(values)
	if !ok {
		s.logger.InfoContext(ctx, "handicap index not yet computable",
			attr.PlayerID("player_id", playerID),
			attr.Int("differential_count", len(values)))
		return result, nil
	}

	snap := &handicapdb.IndexSnapshot{
		PlayerID:     playerID,
		Value:        index,
		ComputedFrom: len(values),
	}
	if err := s.repo.InsertSnapshot(ctx, db, snap); err != nil {
		return RoundResult{}, err
	}

	s.logger.InfoContext(ctx, "handicap index updated",
		attr.PlayerID("player_id", playerID),
		attr.Float64("index", index),
		attr.Int("computed_from", len(values)))

	result.Index = &index
	return result, nil
}

func (s *HandicapService) CurrentIndex(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID) (float64, bool, error) {
	snap, err := s.repo.LatestIndexSnapshot(ctx, db, playerID)
	if err != nil {
		if errors.Is(err, handicapdb.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return snap.Value, true, nil
}

// ResolveCourseHandicap picks the allowance to apply when completing a round:
// a playing handicap recorded on the participant wins, then the player's
// latest index, then the default index for players with no history.
func (s *HandicapService) ResolveCourseHandicap(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, recordedPlayingHandicap *int, tee sharedtypes.TeeRating) (int, error) {
	if recordedPlayingHandicap != nil {
		return *recordedPlayingHandicap, nil
	}

	index, ok, err := s.CurrentIndex(ctx, db, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve course handicap for player %s: %w", playerID, err)
	}
	if !ok {
		index = handicapmath.DefaultHandicapIndex
	}
	return handicapmath.CourseHandicap(index, tee.SlopeRating), nil
}

func (s *HandicapService) HasResultForRound(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, roundID sharedtypes.RoundID) (bool, error) {
	return s.repo.HasDifferentialForRound(ctx, db, playerID, roundID)
}

func (s *HandicapService) History(ctx context.Context, db bun.IDB, playerID sharedtypes.PlayerID, limit int) ([]handicapdb.IndexSnapshot, error) {
	return s.repo.ListSnapshots(ctx, db, playerID, limit)
}

func differentialFor(adjustedGross int, tee sharedtypes.TeeRating, nineHole bool) float64 {
	if nineHole {
		return handicapmath.NineHoleScoreDifferential(adjustedGross, tee.CourseRating, tee.SlopeRating)
	}
	return handicapmath.ScoreDifferential(adjustedGross, tee.CourseRating, tee.SlopeRating)
}
