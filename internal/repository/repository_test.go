package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestNewRepositoriesWithNilDB(t *testing.T) {
	if repo := NewLeaderRepository(nil); repo == nil || repo.db != nil {
		t.Fatal("expected LeaderRepository with nil db")
	}
	if repo := NewAttendanceRepository(nil); repo == nil || repo.db != nil {
		t.Fatal("expected AttendanceRepository with nil db")
	}
	if repo := NewMemberRepository(nil); repo == nil || repo.db != nil {
		t.Fatal("expected MemberRepository with nil db")
	}
}

func TestSentinelErrors(t *testing.T) {
	if ErrLeaderNotFound.Error() != "leader not found" {
		t.Fatalf("unexpected error message: %s", ErrLeaderNotFound)
	}
	if ErrDuplicateEmail.Error() != "email already exists" {
		t.Fatalf("unexpected error message: %s", ErrDuplicateEmail)
	}
	if ErrAttendanceNotFound.Error() != "attendance record not found" {
		t.Fatalf("unexpected error message: %s", ErrAttendanceNotFound)
	}
}

func TestIsDuplicateEntryError(t *testing.T) {
	if isDuplicateEntryError(nil) {
		t.Fatal("nil error should not be a duplicate entry error")
	}
	if isDuplicateEntryError(ErrLeaderNotFound) {
		t.Fatal("ErrLeaderNotFound should not be a duplicate entry error")
	}

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'email'"}
	if !isDuplicateEntryError(dup) {
		t.Fatal("expected 1062 to be a duplicate entry error")
	}
	if !isDuplicateEntryError(fmt.Errorf("insert leader: %w", dup)) {
		t.Fatal("expected wrapped 1062 to be a duplicate entry error")
	}
	if isDuplicateEntryError(&mysql.MySQLError{Number: 1452}) {
		t.Fatal("foreign key failure should not be a duplicate entry error")
	}
	if isDuplicateEntryError(errors.New("Duplicate entry")) {
		t.Fatal("plain text errors should not match")
	}
}

func TestNewDBInvalidDSN(t *testing.T) {
	if _, err := NewDB("not a dsn"); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}
