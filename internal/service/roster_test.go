package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rollcall/rollcall-go/internal/model"
)

type fakeMemberLister struct {
	members []model.Member
	err     error
	asked   string
}

func (f *fakeMemberLister) ListByClass(_ context.Context, classNumber string) ([]model.Member, error) {
	f.asked = classNumber
	return f.members, f.err
}

func TestRoster(t *testing.T) {
	lister := &fakeMemberLister{members: []model.Member{{ID: "7", Name: "Ama", AssignedClass: "3"}}}
	svc := NewRosterService(lister)

	resp, err := svc.Roster(context.Background(), " 3 ")
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if lister.asked != "3" {
		t.Errorf("expected trimmed class, got %q", lister.asked)
	}
	if len(resp.Members) != 1 || resp.Members[0].ID != "7" {
		t.Errorf("unexpected members %+v", resp.Members)
	}
}

func TestRoster_EmptyClass(t *testing.T) {
	svc := NewRosterService(&fakeMemberLister{})

	if _, err := svc.Roster(context.Background(), ""); err != model.ErrClassRequired {
		t.Errorf("expected ErrClassRequired, got %v", err)
	}
}

func TestRoster_NilBecomesEmpty(t *testing.T) {
	svc := NewRosterService(&fakeMemberLister{})

	resp, err := svc.Roster(context.Background(), "9")
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if resp.Members == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestRoster_Error(t *testing.T) {
	svc := NewRosterService(&fakeMemberLister{err: errors.New("db down")})

	if _, err := svc.Roster(context.Background(), "9"); err == nil {
		t.Error("expected error")
	}
}
