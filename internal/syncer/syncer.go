// Package syncer drains the local sync queue against the remote submission
// endpoint on startup, on reconnect and on a periodic timer.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rollcall/rollcall-go/internal/model"
)

var (
	ErrOffline         = errors.New("device is offline")
	ErrSyncInProgress  = errors.New("sync already in progress")
	errUnsupportedKind = errors.New("unsupported queue item kind")
)

const (
	StateIdle    = "idle"
	StateSyncing = "syncing"
)

// Queue is the subset of the local store the orchestrator drains.
type Queue interface {
	ListPending(ctx context.Context) ([]model.SyncQueueItem, error)
	MarkSynced(ctx context.Context, id int64) error
	CountPending(ctx context.Context) (int, error)
	PurgeSyncedOlderThan(ctx context.Context, window time.Duration) (int64, error)
}

// Submitter delivers one submission to the remote endpoint.
type Submitter interface {
	SubmitAttendance(ctx context.Context, sub model.Submission) (model.AttendanceSummary, error)
}

// Connectivity exposes the online state and its reconnect signal.
type Connectivity interface {
	IsOnline() bool
	Subscribe() (<-chan struct{}, func())
}

// Config holds orchestrator timing.
type Config struct {
	Interval  time.Duration // periodic drain while online
	Retention time.Duration // synced items older than this are purged

	// OnPassComplete, when set, runs after every pass while the sync guard
	// is still held.
	OnPassComplete func(ctx context.Context, result Result)
}

// DefaultConfig returns a 30s interval and a 7 day retention window.
func DefaultConfig() Config {
	return Config{
		Interval:  30 * time.Second,
		Retention: 7 * 24 * time.Hour,
	}
}

// Result summarizes one drain pass.
type Result struct {
	Reason     string    `json:"reason"`
	Attempted  int       `json:"attempted"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Purged     int64     `json:"purged"`
	Pending    int       `json:"pending"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Orchestrator runs at most one drain pass at a time.
type Orchestrator struct {
	queue     Queue
	submitter Submitter
	conn      Connectivity
	cfg       Config
	now       func() time.Time

	syncing atomic.Bool

	mu      sync.RWMutex
	last    *Result
	pending int
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an Orchestrator. Zero Interval or Retention fall back to
// DefaultConfig values.
func New(queue Queue, submitter Submitter, conn Connectivity, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	return &Orchestrator{
		queue:     queue,
		submitter: submitter,
		conn:      conn,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start launches the background loop: a startup pass when items are
// pending, a pass on every reconnect signal and a pass on every tick that
// finds items pending while online. Calling Start twice is a no-op. Stop
// waits for an in-flight pass to finish.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.mu.Unlock()

	edges, unsubscribe := o.conn.Subscribe()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer unsubscribe()
		o.loop(loopCtx, edges)
	}()

	slog.Info("sync orchestrator started", "interval", o.cfg.Interval, "retention", o.cfg.Retention)
}

// Stop ends the background loop and waits for an in-flight pass to finish.
// Pending items are left for the next start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.mu.Unlock()

	cancel()
	o.wg.Wait()

	slog.Info("sync orchestrator stopped")
}

func (o *Orchestrator) loop(ctx context.Context, edges <-chan struct{}) {
	if o.conn.IsOnline() {
		n, err := o.queue.CountPending(ctx)
		if err != nil {
			slog.Warn("startup pending count failed", "error", err)
		}
		if n > 0 {
			o.Trigger(ctx, "startup")
		}
	}

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-edges:
			o.Trigger(ctx, "online")
		case <-ticker.C:
			if !o.conn.IsOnline() {
				continue
			}
			n, err := o.queue.CountPending(ctx)
			if err != nil {
				slog.Warn("timer pending count failed", "error", err)
				continue
			}
			if n == 0 {
				continue
			}
			o.Trigger(ctx, "timer")
		}
	}
}

// Trigger runs a drain pass on the caller's goroutine and reports whether
// one ran. Cancelling ctx does not cut the pass short. It returns false when offline or when another pass holds the
// guard.
func (o *Orchestrator) Trigger(ctx context.Context, reason string) bool {
	_, err := o.Drain(ctx, reason)
	switch {
	case errors.Is(err, ErrOffline):
		slog.Debug("sync skipped, offline", "reason", reason)
		return false
	case errors.Is(err, ErrSyncInProgress):
		slog.Debug("sync skipped, already syncing", "reason", reason)
		return false
	}
	return err == nil
}

// Drain runs one guarded pass and returns its result. It fails with
// ErrOffline or ErrSyncInProgress without touching the queue. Once started,
// the pass ignores cancellation of ctx.
func (o *Orchestrator) Drain(ctx context.Context, reason string) (Result, error) {
	if !o.conn.IsOnline() {
		return Result{}, ErrOffline
	}
	if !o.syncing.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInProgress
	}
	defer o.syncing.Store(false)

	// A pass runs to completion over its snapshot even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	result := o.pass(ctx, reason)

	o.mu.Lock()
	o.last = &result
	o.pending = result.Pending
	o.mu.Unlock()

	if o.cfg.OnPassComplete != nil {
		o.cfg.OnPassComplete(ctx, result)
	}
	return result, nil
}

func (o *Orchestrator) pass(ctx context.Context, reason string) Result {
	result := Result{Reason: reason, StartedAt: o.now().UTC()}

	items, err := o.queue.ListPending(ctx)
	if err != nil {
		slog.Warn("list pending failed, treating queue as empty", "error", err)
		items = nil
	}
	result.Attempted = len(items)

	if len(items) > 0 {
		slog.Info("sync pass started", "reason", reason, "pending", len(items))
	}

	for _, item := range items {
		if err := o.send(ctx, item); err != nil {
			result.Failed++
			slog.Warn("queue item not delivered, will retry",
				"item_id", item.ID,
				"class", item.Payload.ClassNumber,
				"date", item.Payload.Date,
				"error", err,
			)
			continue
		}
		result.Sent++
	}

	pending, err := o.queue.CountPending(ctx)
	if err != nil {
		slog.Warn("count pending failed", "error", err)
		pending = result.Attempted - result.Sent
	}
	result.Pending = pending

	purged, err := o.queue.PurgeSyncedOlderThan(ctx, o.cfg.Retention)
	if err != nil {
		slog.Warn("purge synced items failed", "error", err)
	}
	result.Purged = purged

	result.FinishedAt = o.now().UTC()

	if result.Attempted > 0 || result.Purged > 0 {
		slog.Info("sync pass finished",
			"reason", reason,
			"sent", result.Sent,
			"failed", result.Failed,
			"pending", result.Pending,
			"purged", result.Purged,
		)
	}
	return result
}

func (o *Orchestrator) send(ctx context.Context, item model.SyncQueueItem) error {
	if item.Kind != model.KindAttendanceSubmission {
		return errUnsupportedKind
	}
	if _, err := o.submitter.SubmitAttendance(ctx, item.Payload); err != nil {
		return err
	}
	// A failed mark leaves the item pending; the resend is an idempotent upsert.
	return o.queue.MarkSynced(ctx, item.ID)
}

// Syncing reports whether a pass is running.
func (o *Orchestrator) Syncing() bool {
	return o.syncing.Load()
}

// Status returns the state shown to the user. The pending count is read
// from the queue, falling back to the last pass's count.
func (o *Orchestrator) Status(ctx context.Context) model.SyncStatus {
	o.mu.RLock()
	last := o.last
	pending := o.pending
	o.mu.RUnlock()

	if n, err := o.queue.CountPending(ctx); err == nil {
		pending = n
	} else {
		slog.Warn("count pending failed", "error", err)
	}

	syncing := o.syncing.Load()
	status := model.SyncStatus{
		Online:       o.conn.IsOnline(),
		State:        StateIdle,
		Syncing:      syncing,
		PendingCount: pending,
	}
	if syncing {
		status.State = StateSyncing
	}
	if last != nil {
		at := last.FinishedAt
		status.LastSyncAt = &at
		status.LastSent = last.Sent
		status.LastFailed = last.Failed
	}
	return status
}
