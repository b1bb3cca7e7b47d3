package scorebridge

import (
	"context"
	"fmt"
	"time"

	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// Resume initializes the store for a round already in progress, reconciling
// the durable local backup against server truth. Reconciliation is whole
// snapshot, last-write-wins: if the local backup is newer than the server's
// state, local wins and the debounced save is re-armed; otherwise the backup
// is discarded. No per-cell merge is attempted — one device owns a round's
// entry at a time.
func (b *Bridge) Resume(
	ctx context.Context,
	roundID sharedtypes.RoundID,
	holes []sharedtypes.HoleDefinition,
	participants []scorestore.Participant,
	serverEntries []scorestore.Entry,
	serverAsOf time.Time,
	participantOrder []sharedtypes.PlayerID,
) error {
	local, found, err := b.backup.Load(ctx, roundID)
	if err != nil {
		// A broken backup must not block reentry; server state still works.
		b.logger.Error("failed to load local backup, using server state",
			attr.RoundID("round_id", roundID),
			attr.Error(err),
		)
		found = false
	}

	if found && local.LastModified.After(serverAsOf) {
		entries := overlayLocal(serverEntries, local.Entries)
		if local.ParticipantOrder != nil {
			participantOrder = local.ParticipantOrder
		}
		if err := b.store.Initialize(roundID, holes, participants, entries, participantOrder); err != nil {
			return fmt.Errorf("resume round %s from local backup: %w", roundID, err)
		}
		b.logger.Info("resumed from local backup",
			attr.RoundID("round_id", roundID),
			attr.Int("dirty_entries", len(b.store.DirtyEntries())),
		)
		b.mu.Lock()
		if len(b.store.DirtyEntries()) > 0 {
			b.armLocked(b.cfg.Debounce, StatePending)
		}
		b.mu.Unlock()
		return nil
	}

	if err := b.store.Initialize(roundID, holes, participants, serverEntries, participantOrder); err != nil {
		return fmt.Errorf("resume round %s from server state: %w", roundID, err)
	}
	if found {
		if err := b.backup.Delete(ctx, roundID); err != nil {
			b.logger.Warn("failed to discard stale local backup",
				attr.RoundID("round_id", roundID),
				attr.Error(err),
			)
		}
	}
	return nil
}

// overlayLocal keeps the server value as each entry's original snapshot and
// the local backup's value as its current snapshot, so dirty flags fall out
// of the difference.
func overlayLocal(server, local []scorestore.Entry) []scorestore.Entry {
	byID := make(map[sharedtypes.EntryID]scorestore.Entry, len(local))
	for _, e := range local {
		byID[e.ID] = e
	}
	out := make([]scorestore.Entry, 0, len(server))
	for _, se := range server {
		e := se
		if le, ok := byID[se.ID]; ok {
			e.Current = le.Current
			e.ModifiedAt = le.ModifiedAt
		}
		out = append(out, e)
	}
	return out
}
