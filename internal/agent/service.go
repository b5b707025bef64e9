// Package agent implements the device-side marking flow: direct submission
// with a durable local fallback, cached rosters and sync status.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rollcall/rollcall-go/internal/localstore"
	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/syncer"
)

// Roster sources.
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// ErrNoSyncer is returned when no orchestrator has been attached.
var ErrNoSyncer = errors.New("sync orchestrator not configured")

// Store is the local durable store used by the marking flow.
type Store interface {
	Enqueue(ctx context.Context, sub model.Submission) (int64, error)
	ReplaceRoster(ctx context.Context, classNumber string, members []model.Member) error
	ListMembers(ctx context.Context, classNumber string) ([]model.Member, error)
	CachedClasses(ctx context.Context) ([]string, error)
}

// Remote is the attendance API as seen by the device.
type Remote interface {
	SubmitAttendance(ctx context.Context, sub model.Submission) (model.AttendanceSummary, error)
	FetchRoster(ctx context.Context, classNumber string) ([]model.Member, error)
}

// Connectivity reads and records the online state.
type Connectivity interface {
	IsOnline() bool
	Set(online bool) bool
}

// Syncer drains the queue on demand and reports progress.
type Syncer interface {
	Drain(ctx context.Context, reason string) (syncer.Result, error)
	Status(ctx context.Context) model.SyncStatus
}

var (
	_ Store        = (*localstore.Store)(nil)
	_ syncer.Queue = (*localstore.Store)(nil)
	_ Syncer       = (*syncer.Orchestrator)(nil)
)

// Service is the device's marking flow.
type Service struct {
	store  Store
	remote Remote
	conn   Connectivity
	sync   Syncer
}

// NewService creates a Service. Attach the orchestrator with SetSyncer once
// it exists.
func NewService(store Store, remote Remote, conn Connectivity) *Service {
	return &Service{store: store, remote: remote, conn: conn}
}

// SetSyncer attaches the orchestrator used by Status and SyncNow.
func (s *Service) SetSyncer(sync Syncer) {
	s.sync = sync
}

// Submit tries the remote first when online and falls back to the local
// queue. A queued result means the data is durable on the device; an error
// means it was not stored anywhere.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.SubmitResult, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return model.SubmitResult{}, err
	}

	if s.conn.IsOnline() {
		summary, err := s.remote.SubmitAttendance(ctx, sub)
		if err == nil {
			return model.SubmitResult{Outcome: model.OutcomeSynced, Summary: &summary}, nil
		}
		slog.Warn("direct submission failed, queueing locally",
			"class", sub.ClassNumber,
			"date", sub.Date,
			"service_type", sub.ServiceType,
			"error", err,
		)
	}

	// The direct attempt may have failed because ctx was cancelled; the
	// local write must still land.
	id, err := s.store.Enqueue(context.WithoutCancel(ctx), sub)
	if err != nil {
		return model.SubmitResult{}, fmt.Errorf("queue submission: %w", err)
	}

	slog.Info("submission queued", "queue_id", id, "class", sub.ClassNumber, "date", sub.Date)

	return model.SubmitResult{
		Outcome: model.OutcomeQueued,
		QueueID: id,
		Message: "saved on device, will sync when online",
	}, nil
}

// Roster returns the class members from the API when reachable, refreshing
// the cache, and from the cache otherwise.
func (s *Service) Roster(ctx context.Context, classNumber string) (model.RosterResponse, error) {
	classNumber = strings.TrimSpace(classNumber)
	if classNumber == "" {
		return model.RosterResponse{}, model.ErrClassRequired
	}

	if s.conn.IsOnline() {
		members, err := s.remote.FetchRoster(ctx, classNumber)
		if err == nil {
			if err := s.store.ReplaceRoster(ctx, classNumber, members); err != nil {
				slog.Warn("roster cache update failed", "class", classNumber, "error", err)
			}
			return model.RosterResponse{ClassNumber: classNumber, Members: members, Source: SourceRemote}, nil
		}
		slog.Warn("roster fetch failed, using cache", "class", classNumber, "error", err)
	}

	members, err := s.store.ListMembers(ctx, classNumber)
	if err != nil {
		return model.RosterResponse{}, fmt.Errorf("read cached roster: %w", err)
	}
	return model.RosterResponse{ClassNumber: classNumber, Members: members, Source: SourceCache}, nil
}

// Status reports the pending badge, syncing indicator and online state.
func (s *Service) Status(ctx context.Context) model.SyncStatus {
	if s.sync == nil {
		return model.SyncStatus{Online: s.conn.IsOnline(), State: syncer.StateIdle}
	}
	return s.sync.Status(ctx)
}

// SyncNow runs a drain pass immediately.
func (s *Service) SyncNow(ctx context.Context) (syncer.Result, error) {
	if s.sync == nil {
		return syncer.Result{}, ErrNoSyncer
	}
	return s.sync.Drain(ctx, "manual")
}

// SetOnline records a connectivity event pushed by the platform shell.
func (s *Service) SetOnline(online bool) bool {
	return s.conn.Set(online)
}

// OnPassComplete refreshes cached rosters after a clean pass that either
// delivered items or followed a reconnect.
func (s *Service) OnPassComplete(ctx context.Context, result syncer.Result) {
	if result.Failed > 0 {
		return
	}
	if result.Sent == 0 && result.Reason != "online" {
		return
	}
	s.RefreshCachedRosters(ctx)
}

// RefreshCachedRosters re-fetches every cached class and returns how many
// were refreshed. It stops at the first remote failure.
func (s *Service) RefreshCachedRosters(ctx context.Context) int {
	classes, err := s.store.CachedClasses(ctx)
	if err != nil {
		slog.Warn("list cached classes failed", "error", err)
		return 0
	}

	refreshed := 0
	for _, class := range classes {
		members, err := s.remote.FetchRoster(ctx, class)
		if err != nil {
			slog.Warn("roster refresh stopped", "class", class, "error", err)
			break
		}
		if err := s.store.ReplaceRoster(ctx, class, members); err != nil {
			slog.Warn("roster cache update failed", "class", class, "error", err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		slog.Info("cached rosters refreshed", "classes", refreshed)
	}
	return refreshed
}
