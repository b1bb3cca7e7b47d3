// Package scorebridge moves the score store's dirty set to the server
// without losing data across restarts or connectivity loss, and without
// issuing a network write per keystroke. It is an explicit state machine
// (idle -> pending -> in-flight -> idle | backoff -> pending) driven by an
// injectable clock so tests advance virtual time instead of sleeping.
package scorebridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/clock"
	"github.com/fairway-collective/scorekeeper/app/shared/metrics"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// State is the bridge's internal scheduling state.
type State string

const (
	StateIdle     State = "IDLE"
	StatePending  State = "PENDING"
	StateInFlight State = "IN_FLIGHT"
	StateBackoff  State = "BACKOFF"
)

// SaveStatus is the passive, user-visible save indicator. Failures are never
// surfaced as blocking errors: the durable backup already holds the data.
type SaveStatus string

const (
	StatusSaved    SaveStatus = "saved"
	StatusSaving   SaveStatus = "saving"
	StatusOffline  SaveStatus = "offline"
	StatusRetrying SaveStatus = "retrying"
	StatusUnsaved  SaveStatus = "unsaved"
)

// ErrOffline is returned by Flush when dirty entries exist and the client is
// offline. The caller decides whether that blocks (round completion does).
var ErrOffline = errors.New("client is offline with unsaved entries")

// RemoteSaver writes one batch to the server. A batch is only considered
// saved when the server round-trips success for that exact entry set.
type RemoteSaver interface {
	SaveBatch(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error)
}

// BackupStore is the durable local snapshot store.
type BackupStore interface {
	Save(ctx context.Context, snap scorestore.Snapshot) error
	Load(ctx context.Context, roundID sharedtypes.RoundID) (scorestore.Snapshot, bool, error)
	Delete(ctx context.Context, roundID sharedtypes.RoundID) error
}

// Config tunes the debounce and retry policy.
type Config struct {
	Debounce    time.Duration
	BackoffBase time.Duration
	MaxRetries  int
	// SaveTimeout bounds a single batch write; a hung save counts as a
	// failure and reschedules.
	SaveTimeout time.Duration
}

// DefaultConfig matches the product defaults: 2s debounce, 1s backoff base,
// five retries before the UI is told, 15s per-attempt timeout.
func DefaultConfig() Config {
	return Config{Debounce: 2 * time.Second, BackoffBase: time.Second, MaxRetries: 5, SaveTimeout: 15 * time.Second}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = d.SaveTimeout
	}
	return c
}

// Bridge owns the debounce/retry lifecycle for one store instance.
type Bridge struct {
	store   *scorestore.Store
	saver   RemoteSaver
	backup  BackupStore
	clk     clock.Clock
	logger  *slog.Logger
	metrics metrics.Recorder
	cfg     Config

	// saveMu serializes batch attempts: a new debounce cycle never starts
	// until the prior one has resolved.
	saveMu sync.Mutex

	mu         sync.Mutex
	state      State
	online     bool
	retries    int
	generation uint64
	timer      clock.Timer
	onStatus   func(SaveStatus)
}

// New wires a bridge to a store and registers the mutation hook.
func New(
	store *scorestore.Store,
	saver RemoteSaver,
	backup BackupStore,
	clk clock.Clock,
	logger *slog.Logger,
	rec metrics.Recorder,
	cfg Config,
) *Bridge {
	b := &Bridge{
		store:   store,
		saver:   saver,
		backup:  backup,
		clk:     clk,
		logger:  logger,
		metrics: rec,
		cfg:     cfg.withDefaults(),
		state:   StateIdle,
		online:  true,
	}
	store.SetMutationHook(b.onMutation)
	return b
}

// State returns the current scheduling state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetStatusListener registers the passive status callback.
func (b *Bridge) SetStatusListener(fn func(SaveStatus)) {
	b.mu.Lock()
	b.onStatus = fn
	b.mu.Unlock()
}

func (b *Bridge) notify(s SaveStatus) {
	b.mu.Lock()
	fn := b.onStatus
	b.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// onMutation runs synchronously after every store mutation: durable backup
// first (never waits for the network), then the debounce timer.
func (b *Bridge) onMutation(snap scorestore.Snapshot) {
	ctx := context.Background()
	if err := b.backup.Save(ctx, snap); err != nil {
		// Backup failure is logged, not propagated: the in-memory store still
		// holds the data and the next mutation retries the write.
		b.logger.Error("durable backup write failed",
			attr.RoundID("round_id", snap.RoundID),
			attr.Error(err),
		)
	} else {
		b.metrics.RecordBackupWrite(ctx)
	}

	b.mu.Lock()
	if b.state == StateInFlight {
		// The resolution path re-arms if dirty entries remain.
		b.mu.Unlock()
		return
	}
	b.armLocked(b.cfg.Debounce, StatePending)
	b.mu.Unlock()
}

// armLocked (re)starts the timer. Caller holds b.mu.
func (b *Bridge) armLocked(d time.Duration, next State) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.state = next
	b.timer = b.clk.AfterFunc(d, b.onTimer)
}

// onTimer fires on debounce expiry or backoff expiry.
func (b *Bridge) onTimer() {
	b.mu.Lock()
	if b.state != StatePending && b.state != StateBackoff {
		b.mu.Unlock()
		return
	}
	if !b.online {
		b.state = StateIdle
		b.mu.Unlock()
		b.notify(StatusOffline)
		return
	}
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.SaveTimeout)
	defer cancel()

	b.saveMu.Lock()
	err := b.attemptOnce(ctx)
	b.saveMu.Unlock()

	if err != nil {
		b.scheduleRetry()
	}
}

// attemptOnce captures the dirty set, issues exactly one batched write, and
// applies the result. Caller holds saveMu. A nil error means either success
// or nothing to save.
func (b *Bridge) attemptOnce(ctx context.Context) error {
	dirty := b.store.DirtyEntries()
	if len(dirty) == 0 {
		b.mu.Lock()
		b.state = StateIdle
		b.mu.Unlock()
		return nil
	}

	b.mu.Lock()
	b.state = StateInFlight
	b.generation++
	gen := b.generation
	roundID := b.store.RoundID()
	b.mu.Unlock()

	b.notify(StatusSaving)
	b.metrics.RecordOperationAttempt(ctx, "SaveBatch")
	b.metrics.RecordBatchSize(ctx, len(dirty))

	updates := make([]sharedtypes.ScoreEntryUpdate, 0, len(dirty))
	for _, e := range dirty {
		cur := e.Current
		updates = append(updates, sharedtypes.ScoreEntryUpdate{
			EntryID:           e.ID,
			Strokes:           cur.Strokes,
			Putts:             &cur.Putts,
			FairwayHit:        &cur.FairwayHit,
			GreenInRegulation: &cur.GreenInRegulation,
		})
	}

	start := b.clk.Now()
	result, err := b.saver.SaveBatch(ctx, roundID, updates)
	b.metrics.RecordOperationDuration(ctx, "SaveBatch", b.clk.Now().Sub(start))

	if err != nil {
		b.metrics.RecordOperationFailure(ctx, "SaveBatch")
		b.store.MarkSaveFailed()
		b.logger.Warn("batched save failed",
			attr.RoundID("round_id", roundID),
			attr.Int("batch_entries", len(updates)),
			attr.Any("generation", gen),
			attr.Error(err),
		)
		return fmt.Errorf("save batch for round %s: %w", roundID, err)
	}

	b.metrics.RecordOperationSuccess(ctx, "SaveBatch")

	// Only the entries the server acknowledged, with the exact snapshots that
	// were sent, count as saved. Edits that landed after the capture keep
	// their dirty flag and ride the next batch.
	accepted := make(map[sharedtypes.EntryID]bool, len(result.AcceptedEntryIDs))
	for _, id := range result.AcceptedEntryIDs {
		accepted[id] = true
	}
	confirmed := make([]scorestore.Entry, 0, len(dirty))
	for _, e := range dirty {
		if accepted[e.ID] {
			confirmed = append(confirmed, e)
		}
	}
	b.store.MarkSaved(confirmed)

	b.mu.Lock()
	b.retries = 0
	b.state = StateIdle
	rearm := len(b.store.DirtyEntries()) > 0
	if rearm {
		// Edits landed while the batch was in flight.
		b.armLocked(b.cfg.Debounce, StatePending)
	}
	b.mu.Unlock()

	b.logger.Debug("batched save accepted",
		attr.RoundID("round_id", roundID),
		attr.Int("accepted", len(result.AcceptedEntryIDs)),
		attr.Any("generation", gen),
	)
	b.notify(StatusSaved)
	return nil
}

// scheduleRetry applies the backoff policy after a failed attempt.
func (b *Bridge) scheduleRetry() {
	b.mu.Lock()
	b.retries++
	retries := b.retries
	if retries > b.cfg.MaxRetries {
		// Exhausted: tell the UI, keep the data, stop rescheduling until the
		// next mutation, reconnect, or explicit flush.
		b.state = StateIdle
		b.mu.Unlock()
		b.notify(StatusUnsaved)
		return
	}
	delay := b.cfg.BackoffBase << (retries - 1)
	b.armLocked(delay, StateBackoff)
	b.mu.Unlock()

	b.metrics.RecordRetry(context.Background(), retries)
	b.notify(StatusRetrying)
}

// SetOnline feeds connectivity transitions. Going offline suppresses network
// attempts (the durable backup keeps working); coming online flushes any
// outstanding dirty set immediately.
func (b *Bridge) SetOnline(online bool) {
	b.mu.Lock()
	was := b.online
	b.online = online
	if !online {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		b.state = StateIdle
		b.mu.Unlock()
		b.notify(StatusOffline)
		return
	}
	if !was && len(b.store.DirtyEntries()) > 0 {
		b.retries = 0
		b.armLocked(0, StatePending)
	}
	b.mu.Unlock()
}

// Flush forces a synchronous save: round exit and round completion call this
// before moving on. Retries happen inline without backoff sleeps. Offline
// with dirty entries is an error for the caller to interpret; local data is
// preserved regardless.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	online := b.online
	b.mu.Unlock()

	if len(b.store.DirtyEntries()) == 0 {
		return nil
	}
	if !online {
		return ErrOffline
	}

	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	var err error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if err = b.attemptOnce(ctx); err == nil {
			return nil
		}
	}
	b.notify(StatusUnsaved)
	return err
}

// Close stops any armed timer. The store's data survives in the backup.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.state = StateIdle
	b.mu.Unlock()
}
