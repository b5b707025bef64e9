package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rollcall/rollcall-go/internal/crypto"
	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailTaken         = errors.New("email already taken")
)

// AuthService handles leader registration and login.
type AuthService struct {
	repo      *repository.LeaderRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.LeaderRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates a leader account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateLeaderRequest) (model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	leader := &model.Leader{
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		AuthHash:    hash,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, leader); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	return s.issue(leader)
}

// Login authenticates a leader and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	leader, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrLeaderNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, leader.AuthHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	if crypto.NeedsRehash(leader.AuthHash) {
		if hash, err := crypto.HashPassword(req.Password); err == nil {
			if err := s.repo.UpdateAuthHash(ctx, leader.ID, hash); err != nil {
				slog.Warn("password rehash failed", "leader_id", leader.ID, "error", err)
			}
		}
	}

	return s.issue(leader)
}

// GetLeader returns safe leader data by ID.
func (s *AuthService) GetLeader(ctx context.Context, leaderID int64) (model.LeaderResponse, error) {
	leader, err := s.repo.GetByID(ctx, leaderID)
	if err != nil {
		return model.LeaderResponse{}, err
	}
	return toLeaderResponse(leader), nil
}

func (s *AuthService) issue(leader *model.Leader) (model.AuthResponse, error) {
	token, err := crypto.GenerateToken(leader.ID, leader.DisplayName, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{Token: token, Leader: toLeaderResponse(leader)}, nil
}

func toLeaderResponse(l *model.Leader) model.LeaderResponse {
	return model.LeaderResponse{
		ID:          l.ID,
		Email:       l.Email,
		DisplayName: l.DisplayName,
		CreatedAt:   l.CreatedAt,
	}
}
