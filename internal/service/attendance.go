package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/repository"
)

var ErrAttendanceNotFound = errors.New("attendance record not found")

// AttendanceStore persists submissions keyed by class, date and service type.
type AttendanceStore interface {
	SaveSubmission(ctx context.Context, sub model.Submission, present, absent int) (model.AttendanceSummary, error)
	GetSummary(ctx context.Context, classNumber, date string, service model.ServiceType) (model.AttendanceSummary, error)
}

// AttendanceService accepts attendance submissions from leaders and devices.
type AttendanceService struct {
	store AttendanceStore
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(store AttendanceStore) *AttendanceService {
	return &AttendanceService{store: store}
}

// Submit validates a submission, computes its aggregates and upserts it.
// Re-submitting the same class/date/service overwrites the stored record.
// defaultLeader fills LeaderName when the submission omits it.
func (s *AttendanceService) Submit(ctx context.Context, sub model.Submission, defaultLeader string) (model.AttendanceSummary, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return model.AttendanceSummary{}, err
	}
	if sub.LeaderName == "" {
		sub.LeaderName = defaultLeader
	}

	present, absent := sub.Counts()

	summary, err := s.store.SaveSubmission(ctx, sub, present, absent)
	if err != nil {
		return model.AttendanceSummary{}, err
	}

	slog.Info("attendance stored",
		"record_id", summary.ID,
		"class", sub.ClassNumber,
		"date", sub.Date,
		"service_type", sub.ServiceType,
		"present", present,
		"absent", absent,
	)

	return summary, nil
}

// Get returns the stored record for a class/date/service.
func (s *AttendanceService) Get(ctx context.Context, classNumber, date string, service model.ServiceType) (model.AttendanceSummary, error) {
	key := model.Submission{ClassNumber: classNumber, Date: date, ServiceType: service}.Normalize()
	if key.ClassNumber == "" {
		return model.AttendanceSummary{}, model.ErrClassRequired
	}
	if _, err := time.Parse(model.DateLayout, key.Date); err != nil {
		return model.AttendanceSummary{}, model.ErrInvalidDate
	}
	if !key.ServiceType.Valid() {
		return model.AttendanceSummary{}, model.ErrInvalidServiceType
	}

	summary, err := s.store.GetSummary(ctx, key.ClassNumber, key.Date, key.ServiceType)
	if errors.Is(err, repository.ErrAttendanceNotFound) {
		return model.AttendanceSummary{}, ErrAttendanceNotFound
	}
	return summary, err
}

// IsValidationError reports whether err was caused by a malformed submission.
func IsValidationError(err error) bool {
	return errors.Is(err, model.ErrClassRequired) ||
		errors.Is(err, model.ErrInvalidDate) ||
		errors.Is(err, model.ErrInvalidServiceType) ||
		errors.Is(err, model.ErrNoMemberRecords) ||
		errors.Is(err, model.ErrTooManyRecords) ||
		errors.Is(err, model.ErrMemberIDRequired) ||
		errors.Is(err, model.ErrInvalidStatus)
}
