package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rollcall/rollcall-go/internal/crypto"
	"github.com/rollcall/rollcall-go/internal/middleware"
	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/repository"
	"github.com/rollcall/rollcall-go/internal/service"
)

const testSecret = "handler-test-secret"

type stubStore struct {
	records map[string]model.AttendanceSummary
}

func (s *stubStore) SaveSubmission(_ context.Context, sub model.Submission, present, absent int) (model.AttendanceSummary, error) {
	key := sub.ClassNumber + "|" + sub.Date + "|" + string(sub.ServiceType)
	summary := model.AttendanceSummary{
		ID:                  int64(len(s.records) + 1),
		ClassNumber:         sub.ClassNumber,
		Date:                sub.Date,
		ServiceType:         sub.ServiceType,
		TotalMembersPresent: present,
		TotalMembersAbsent:  absent,
		LeaderName:          sub.LeaderName,
		MemberRecords:       sub.MemberRecords,
	}
	if prev, ok := s.records[key]; ok {
		summary.ID = prev.ID
	}
	s.records[key] = summary
	return summary, nil
}

func (s *stubStore) GetSummary(_ context.Context, class, date string, st model.ServiceType) (model.AttendanceSummary, error) {
	summary, ok := s.records[class+"|"+date+"|"+string(st)]
	if !ok {
		return model.AttendanceSummary{}, repository.ErrAttendanceNotFound
	}
	return summary, nil
}

type stubRoster struct{}

func (stubRoster) ListByClass(_ context.Context, class string) ([]model.Member, error) {
	if class != "3" {
		return nil, nil
	}
	return []model.Member{{ID: "7", Name: "Ama Owusu", AssignedClass: "3"}}, nil
}

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()

	attendance := NewAttendanceHandler(service.NewAttendanceService(&stubStore{records: map[string]model.AttendanceSummary{}}))
	roster := NewRosterHandler(service.NewRosterService(stubRoster{}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(testSecret))
		r.Post("/api/v1/attendance", attendance.HandleSubmit)
		r.Get("/api/v1/attendance", attendance.HandleGet)
		r.Get("/api/v1/classes/{class}/members", roster.HandleList)
	})

	token, err := crypto.GenerateToken(1, "Token Leader", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return r, token
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const scenarioABody = `{"class_number":"3","attendance_date":"2024-03-10","service_type":"sunday",` +
	`"member_records":[{"member_id":"7","status":"present"}],"leader_name":"J. Smith"}`

func TestHandleSubmit(t *testing.T) {
	h, token := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/attendance", token, scenarioABody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary model.AttendanceSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TotalMembersPresent != 1 || summary.TotalMembersAbsent != 0 {
		t.Errorf("expected 1/0, got %d/%d", summary.TotalMembersPresent, summary.TotalMembersAbsent)
	}
	if summary.LeaderName != "J. Smith" {
		t.Errorf("expected J. Smith, got %q", summary.LeaderName)
	}
}

func TestHandleSubmit_DefaultsLeaderFromToken(t *testing.T) {
	h, token := newTestRouter(t)

	body := strings.Replace(scenarioABody, `,"leader_name":"J. Smith"`, "", 1)
	rec := do(t, h, http.MethodPost, "/api/v1/attendance", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var summary model.AttendanceSummary
	json.NewDecoder(rec.Body).Decode(&summary)
	if summary.LeaderName != "Token Leader" {
		t.Errorf("expected token name, got %q", summary.LeaderName)
	}
}

func TestHandleSubmit_Errors(t *testing.T) {
	h, token := newTestRouter(t)

	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
	}{
		{name: "unauthenticated", token: "", body: scenarioABody, wantStatus: http.StatusUnauthorized},
		{name: "malformed json", token: token, body: "{", wantStatus: http.StatusBadRequest},
		{
			name:       "invalid service",
			token:      token,
			body:       strings.Replace(scenarioABody, "sunday", "vigil", 1),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			token:      token,
			body:       `{"leader_name":"` + strings.Repeat("x", maxBodyBytes) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/attendance", tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestHandleGet(t *testing.T) {
	h, token := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/attendance?class=3&date=2024-03-10&service_type=sunday", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before submit, got %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/api/v1/attendance", token, scenarioABody)

	rec = do(t, h, http.MethodGet, "/api/v1/attendance?class=3&date=2024-03-10&service_type=sunday", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/attendance?class=3&date=bad&service_type=sunday", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestHandleRoster(t *testing.T) {
	h, token := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/classes/3/members", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp model.RosterResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Members) != 1 || resp.Members[0].Name != "Ama Owusu" {
		t.Errorf("unexpected roster %+v", resp)
	}
}
