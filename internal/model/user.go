package model

import "time"

// Leader is a class leader or administrator who can submit attendance.
type Leader struct {
	ID          int64
	Email       string
	DisplayName string
	AuthHash    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateLeaderRequest represents a leader registration request.
type CreateLeaderRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents a leader login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents an authentication response with a JWT token and leader info.
type AuthResponse struct {
	Token  string         `json:"token"`
	Leader LeaderResponse `json:"leader"`
}

// LeaderResponse represents leader data safe for API responses (no sensitive fields).
type LeaderResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
