// Package scoresync assembles a client-side scoring session: the in-memory
// store, the durable sqlite backup, and the debounced persistence bridge,
// saving through the round service.
package scoresync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	roundservice "github.com/fairway-collective/scorekeeper/app/modules/round/application"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	scorebridge "github.com/fairway-collective/scorekeeper/app/modules/scoresync/bridge"
	"github.com/fairway-collective/scorekeeper/app/modules/scoresync/localstore"
	"github.com/fairway-collective/scorekeeper/app/modules/scoresync/remote"
	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/clock"
	"github.com/fairway-collective/scorekeeper/app/shared/metrics"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
	"github.com/fairway-collective/scorekeeper/config"
)

// Session is one open round's scoring state with persistence attached.
type Session struct {
	Store  *scorestore.Store
	Bridge *scorebridge.Bridge

	backup *localstore.SQLiteStore
}

// OpenSession builds the store/backup/bridge assembly for a round and resumes
// it from local backup or server truth, whichever is newer.
func OpenSession(
	ctx context.Context,
	cfg config.SyncConfig,
	svc roundservice.Service,
	roundID sharedtypes.RoundID,
	logger *slog.Logger,
	rec metrics.Recorder,
) (*Session, error) {
	round, entries, err := svc.GetRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load round %s: %w", roundID, err)
	}
	if round.Status != sharedtypes.RoundStatusInProgress {
		return nil, fmt.Errorf("round %s is %s, not in progress", roundID, round.Status)
	}

	backup, err := localstore.Open(cfg.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("open local backup: %w", err)
	}

	clk := clock.New()
	store := scorestore.New(clk, logger)
	bridge := scorebridge.New(
		store,
		remote.NewServiceSaver(svc),
		backup,
		clk,
		logger,
		rec,
		scorebridge.Config{
			Debounce:    cfg.Debounce,
			BackoffBase: cfg.BackoffBase,
			MaxRetries:  cfg.MaxRetries,
			SaveTimeout: cfg.SaveTimeout,
		},
	)

	serverAsOf := latestUpdate(entries, round.StartedAt)
	if err := bridge.Resume(
		ctx,
		roundID,
		round.Holes,
		sessionParticipants(round.Participants),
		sessionEntries(entries),
		serverAsOf,
		nil,
	); err != nil {
		bridge.Close()
		backup.Close()
		return nil, err
	}

	return &Session{Store: store, Bridge: bridge, backup: backup}, nil
}

// Close flushes outstanding edits when possible and releases the backup.
// An offline close is not an error; the backup keeps the data.
func (s *Session) Close(ctx context.Context) error {
	err := s.Bridge.Flush(ctx)
	if errors.Is(err, scorebridge.ErrOffline) {
		err = nil
	}
	s.Bridge.Close()
	if cerr := s.backup.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func latestUpdate(entries []rounddb.ScoreEntry, floor time.Time) time.Time {
	latest := floor
	for _, e := range entries {
		if e.UpdatedAt.After(latest) {
			latest = e.UpdatedAt
		}
	}
	return latest
}

func sessionParticipants(roster []rounddb.Participant) []scorestore.Participant {
	out := make([]scorestore.Participant, 0, len(roster))
	for _, p := range roster {
		out = append(out, scorestore.Participant{
			ID:              p.PlayerID,
			DisplayName:     p.DisplayName,
			Position:        p.Position,
			PlayingHandicap: p.PlayingHandicap,
		})
	}
	return out
}

func sessionEntries(rows []rounddb.ScoreEntry) []scorestore.Entry {
	out := make([]scorestore.Entry, 0, len(rows))
	for _, row := range rows {
		snap := sharedtypes.ScoreSnapshot{
			Strokes:           row.Strokes,
			Putts:             row.Putts,
			FairwayHit:        row.FairwayHit,
			GreenInRegulation: row.GreenInRegulation,
		}
		out = append(out, scorestore.Entry{
			ID:            row.ID,
			ParticipantID: row.PlayerID,
			HoleNumber:    row.HoleNumber,
			Original:      snap,
			Current:       snap,
			ModifiedAt:    row.UpdatedAt,
		})
	}
	return out
}
