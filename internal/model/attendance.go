package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// MaxMemberRecords bounds the number of member statuses in one submission.
const MaxMemberRecords = 500

// ServiceType distinguishes the recurring events attendance is taken for.
type ServiceType string

const (
	ServiceSunday     ServiceType = "sunday"
	ServiceBibleStudy ServiceType = "bible-study"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	return t == ServiceSunday || t == ServiceBibleStudy
}

// Status is a member's attendance status for one service.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusSick    Status = "sick"
	StatusTravel  Status = "travel"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusSick, StatusTravel:
		return true
	}
	return false
}

var (
	ErrClassRequired      = errors.New("class_number is required")
	ErrInvalidDate        = errors.New("attendance_date must be YYYY-MM-DD")
	ErrInvalidServiceType = errors.New("service_type must be sunday or bible-study")
	ErrNoMemberRecords    = errors.New("member_records must not be empty")
	ErrTooManyRecords     = fmt.Errorf("member_records exceeds %d entries", MaxMemberRecords)
	ErrMemberIDRequired   = errors.New("member_id is required")
	ErrInvalidStatus      = errors.New("status must be present, absent, sick or travel")
)

// MemberRecord is one member's status inside a submission.
type MemberRecord struct {
	MemberID string `json:"member_id"`
	Status   Status `json:"status"`
}

// Submission is one class/date/service attendance event with its member statuses.
// It is the unit sent to the remote store in a single call.
type Submission struct {
	ClassNumber   string         `json:"class_number"`
	Date          string         `json:"attendance_date"`
	ServiceType   ServiceType    `json:"service_type"`
	MemberRecords []MemberRecord `json:"member_records"`
	LeaderName    string         `json:"leader_name,omitempty"`
}

// ErrInvalidClassNumber is returned when class_number is neither a string
// nor an integer.
var ErrInvalidClassNumber = errors.New("class_number must be a string or an integer")

// UnmarshalJSON accepts class_number as either a JSON string or an integer,
// so "class_number": 3 and "class_number": "3" decode the same way.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	var raw struct {
		plain
		ClassNumber json.RawMessage `json:"class_number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Submission(raw.plain)
	s.ClassNumber = ""

	class := bytes.TrimSpace(raw.ClassNumber)
	if len(class) == 0 || bytes.Equal(class, []byte("null")) {
		return nil
	}
	if class[0] == '"' {
		return json.Unmarshal(class, &s.ClassNumber)
	}

	var n json.Number
	if err := json.Unmarshal(class, &n); err != nil {
		return ErrInvalidClassNumber
	}
	if _, err := n.Int64(); err != nil {
		return ErrInvalidClassNumber
	}
	s.ClassNumber = n.String()
	return nil
}

// Normalize trims whitespace and collapses repeated member ids, keeping the
// last status given for a member at the position of its first occurrence.
func (s Submission) Normalize() Submission {
	out := Submission{
		ClassNumber: strings.TrimSpace(s.ClassNumber),
		Date:        strings.TrimSpace(s.Date),
		ServiceType: ServiceType(strings.TrimSpace(string(s.ServiceType))),
		LeaderName:  strings.TrimSpace(s.LeaderName),
	}

	index := make(map[string]int, len(s.MemberRecords))
	for _, r := range s.MemberRecords {
		rec := MemberRecord{
			MemberID: strings.TrimSpace(r.MemberID),
			Status:   Status(strings.ToLower(strings.TrimSpace(string(r.Status)))),
		}
		if i, ok := index[rec.MemberID]; ok {
			out.MemberRecords[i] = rec
			continue
		}
		index[rec.MemberID] = len(out.MemberRecords)
		out.MemberRecords = append(out.MemberRecords, rec)
	}

	return out
}

// Validate checks a normalized submission.
func (s Submission) Validate() error {
	if s.ClassNumber == "" {
		return ErrClassRequired
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return ErrInvalidDate
	}
	if !s.ServiceType.Valid() {
		return ErrInvalidServiceType
	}
	if len(s.MemberRecords) == 0 {
		return ErrNoMemberRecords
	}
	if len(s.MemberRecords) > MaxMemberRecords {
		return ErrTooManyRecords
	}
	for _, r := range s.MemberRecords {
		if r.MemberID == "" {
			return ErrMemberIDRequired
		}
		if !r.Status.Valid() {
			return fmt.Errorf("%w: member %s has %q", ErrInvalidStatus, r.MemberID, r.Status)
		}
	}
	return nil
}

// Counts returns the present and absent aggregates for the submission.
// Sick and travel count as not present.
func (s Submission) Counts() (present, absent int) {
	for _, r := range s.MemberRecords {
		if r.Status == StatusPresent {
			present++
		}
	}
	return present, len(s.MemberRecords) - present
}

// AttendanceSummary is the stored summary record for one class/date/service.
type AttendanceSummary struct {
	ID                  int64          `json:"id"`
	ClassNumber         string         `json:"class_number"`
	Date                string         `json:"attendance_date"`
	ServiceType         ServiceType    `json:"service_type"`
	TotalMembersPresent int            `json:"total_members_present"`
	TotalMembersAbsent  int            `json:"total_members_absent"`
	LeaderName          string         `json:"leader_name,omitempty"`
	MemberRecords       []MemberRecord `json:"member_records,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
