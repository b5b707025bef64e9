package service

import (
	"context"
	"strings"

	"github.com/rollcall/rollcall-go/internal/model"
)

// MemberLister reads class rosters.
type MemberLister interface {
	ListByClass(ctx context.Context, classNumber string) ([]model.Member, error)
}

// RosterService serves class member lists.
type RosterService struct {
	members MemberLister
}

// NewRosterService creates a new RosterService.
func NewRosterService(members MemberLister) *RosterService {
	return &RosterService{members: members}
}

// Roster returns the members of a class.
func (s *RosterService) Roster(ctx context.Context, classNumber string) (model.RosterResponse, error) {
	classNumber = strings.TrimSpace(classNumber)
	if classNumber == "" {
		return model.RosterResponse{}, model.ErrClassRequired
	}

	members, err := s.members.ListByClass(ctx, classNumber)
	if err != nil {
		return model.RosterResponse{}, err
	}
	if members == nil {
		members = []model.Member{}
	}

	return model.RosterResponse{ClassNumber: classNumber, Members: members}, nil
}
