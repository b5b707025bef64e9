package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rollcall/rollcall-go/internal/model"
)

var ErrAttendanceNotFound = errors.New("attendance record not found")

// AttendanceRepository persists attendance summaries and per-member statuses.
type AttendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// upsertSummaryQuery keys the summary on (class_number, attendance_date, service_type).
// LAST_INSERT_ID(id) makes LastInsertId return the existing row id on update.
const upsertSummaryQuery = `
	INSERT INTO attendance_records
		(class_number, attendance_date, service_type, total_members_present, total_members_absent, leader_name)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		id                    = LAST_INSERT_ID(id),
		total_members_present = VALUES(total_members_present),
		total_members_absent  = VALUES(total_members_absent),
		leader_name           = VALUES(leader_name),
		updated_at            = CURRENT_TIMESTAMP`

// upsertMemberQuery keys a member status on (attendance_record_id, member_id).
const upsertMemberQuery = `
	INSERT INTO member_attendance (attendance_record_id, member_id, status)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE status = VALUES(status)`

// SaveSubmission writes one submission in a single transaction. The stored
// member statuses for the record are replaced so they match the submission.
func (r *AttendanceRepository) SaveSubmission(ctx context.Context, sub model.Submission, present, absent int) (model.AttendanceSummary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AttendanceSummary{}, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, upsertSummaryQuery,
		sub.ClassNumber,
		sub.Date,
		string(sub.ServiceType),
		present,
		absent,
		nullString(sub.LeaderName),
	)
	if err != nil {
		return model.AttendanceSummary{}, fmt.Errorf("upsert summary: %w", err)
	}

	recordID, err := result.LastInsertId()
	if err != nil {
		return model.AttendanceSummary{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM member_attendance WHERE attendance_record_id = ?`, recordID); err != nil {
		return model.AttendanceSummary{}, fmt.Errorf("clear member statuses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertMemberQuery)
	if err != nil {
		return model.AttendanceSummary{}, err
	}
	defer stmt.Close()

	for _, rec := range sub.MemberRecords {
		if _, err := stmt.ExecContext(ctx, recordID, rec.MemberID, string(rec.Status)); err != nil {
			return model.AttendanceSummary{}, fmt.Errorf("upsert member %s: %w", rec.MemberID, err)
		}
	}

	summary, err := getSummaryByID(ctx, tx, recordID)
	if err != nil {
		return model.AttendanceSummary{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.AttendanceSummary{}, err
	}

	summary.MemberRecords = sub.MemberRecords
	return summary, nil
}

// GetSummary returns the stored record for a class/date/service with its member statuses.
func (r *AttendanceRepository) GetSummary(ctx context.Context, classNumber, date string, service model.ServiceType) (model.AttendanceSummary, error) {
	query := `SELECT id, class_number, attendance_date, service_type, total_members_present,
			total_members_absent, leader_name, created_at, updated_at
		FROM attendance_records WHERE class_number = ? AND attendance_date = ? AND service_type = ?`

	summary, err := scanSummary(r.db.QueryRowContext(ctx, query, classNumber, date, string(service)))
	if err != nil {
		return model.AttendanceSummary{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id, status FROM member_attendance WHERE attendance_record_id = ? ORDER BY member_id ASC`,
		summary.ID,
	)
	if err != nil {
		return model.AttendanceSummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec model.MemberRecord
		var status string
		if err := rows.Scan(&rec.MemberID, &status); err != nil {
			return model.AttendanceSummary{}, err
		}
		rec.Status = model.Status(status)
		summary.MemberRecords = append(summary.MemberRecords, rec)
	}

	return summary, rows.Err()
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSummaryByID(ctx context.Context, q rowQuerier, id int64) (model.AttendanceSummary, error) {
	query := `SELECT id, class_number, attendance_date, service_type, total_members_present,
			total_members_absent, leader_name, created_at, updated_at
		FROM attendance_records WHERE id = ?`
	return scanSummary(q.QueryRowContext(ctx, query, id))
}

func scanSummary(row *sql.Row) (model.AttendanceSummary, error) {
	var s model.AttendanceSummary
	var date time.Time
	var service string
	var leader sql.NullString

	err := row.Scan(
		&s.ID, &s.ClassNumber, &date, &service, &s.TotalMembersPresent,
		&s.TotalMembersAbsent, &leader, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AttendanceSummary{}, ErrAttendanceNotFound
		}
		return model.AttendanceSummary{}, err
	}

	s.Date = date.Format(model.DateLayout)
	s.ServiceType = model.ServiceType(service)
	s.LeaderName = leader.String
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
