package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/syncer"
)

type fakeLocalService struct {
	online    bool
	submitErr error
	syncErr   error
	queued    bool
}

func (f *fakeLocalService) Submit(_ context.Context, sub model.Submission) (model.SubmitResult, error) {
	if f.submitErr != nil {
		return model.SubmitResult{}, f.submitErr
	}
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return model.SubmitResult{}, err
	}
	if f.queued {
		return model.SubmitResult{Outcome: model.OutcomeQueued, QueueID: 1}, nil
	}
	return model.SubmitResult{Outcome: model.OutcomeSynced}, nil
}

func (f *fakeLocalService) Roster(_ context.Context, class string) (model.RosterResponse, error) {
	if class == "" {
		return model.RosterResponse{}, model.ErrClassRequired
	}
	return model.RosterResponse{ClassNumber: class, Members: []model.Member{}, Source: "cache"}, nil
}

func (f *fakeLocalService) Status(context.Context) model.SyncStatus {
	return model.SyncStatus{Online: f.online, State: syncer.StateIdle, PendingCount: 2}
}

func (f *fakeLocalService) SyncNow(context.Context) (syncer.Result, error) {
	if f.syncErr != nil {
		return syncer.Result{}, f.syncErr
	}
	return syncer.Result{Reason: "manual", Sent: 2}, nil
}

func (f *fakeLocalService) SetOnline(online bool) bool {
	changed := f.online != online
	f.online = online
	return changed
}

func TestLocalSubmit(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeLocalService
		body       string
		wantStatus int
	}{
		{name: "synced", svc: &fakeLocalService{}, body: scenarioABody, wantStatus: http.StatusCreated},
		{name: "queued", svc: &fakeLocalService{queued: true}, body: scenarioABody, wantStatus: http.StatusAccepted},
		{
			name:       "numeric class",
			svc:        &fakeLocalService{},
			body:       strings.Replace(scenarioABody, `"class_number":"3"`, `"class_number":3`, 1),
			wantStatus: http.StatusCreated,
		},
		{name: "invalid", svc: &fakeLocalService{}, body: `{"class_number":"3"}`, wantStatus: http.StatusBadRequest},
		{name: "storage failure", svc: &fakeLocalService{submitErr: errors.New("disk full")}, body: scenarioABody, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLocalHandler(tt.svc).Routes()
			rec := do(t, h, http.MethodPost, "/local/v1/attendance", "", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLocalSync(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "offline", err: syncer.ErrOffline, wantStatus: http.StatusServiceUnavailable},
		{name: "busy", err: syncer.ErrSyncInProgress, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLocalHandler(&fakeLocalService{syncErr: tt.err}).Routes()
			rec := do(t, h, http.MethodPost, "/local/v1/sync", "", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestLocalConnectivityAndStatus(t *testing.T) {
	svc := &fakeLocalService{}
	h := NewLocalHandler(svc).Routes()

	rec := do(t, h, http.MethodPut, "/local/v1/connectivity", "", `{"online":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.online {
		t.Fatal("expected service to be marked online")
	}

	rec = do(t, h, http.MethodGet, "/local/v1/status", "", "")
	var status model.SyncStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Online || status.PendingCount != 2 || status.State != syncer.StateIdle {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestLocalRoster(t *testing.T) {
	h := NewLocalHandler(&fakeLocalService{}).Routes()

	rec := do(t, h, http.MethodGet, "/local/v1/classes/3/members", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
