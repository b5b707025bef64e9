package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rollcall/rollcall-go/internal/model"
)

var (
	ErrLeaderNotFound = errors.New("leader not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// LeaderRepository handles leader account persistence.
type LeaderRepository struct {
	db *sql.DB
}

// NewLeaderRepository creates a new LeaderRepository.
func NewLeaderRepository(db *sql.DB) *LeaderRepository {
	return &LeaderRepository{db: db}
}

// Create inserts a new leader and sets the generated ID on it.
func (r *LeaderRepository) Create(ctx context.Context, leader *model.Leader) error {
	query := `INSERT INTO leaders (email, display_name, auth_hash) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, leader.Email, leader.DisplayName, leader.AuthHash)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	leader.ID = id
	return nil
}

// GetByEmail retrieves a leader by email address.
func (r *LeaderRepository) GetByEmail(ctx context.Context, email string) (*model.Leader, error) {
	query := `SELECT id, email, display_name, auth_hash, created_at, updated_at FROM leaders WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a leader by ID.
func (r *LeaderRepository) GetByID(ctx context.Context, id int64) (*model.Leader, error) {
	query := `SELECT id, email, display_name, auth_hash, created_at, updated_at FROM leaders WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateAuthHash replaces a leader's password hash.
func (r *LeaderRepository) UpdateAuthHash(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE leaders SET auth_hash = ? WHERE id = ?`, hash, id)
	return err
}

func (r *LeaderRepository) scanOne(row *sql.Row) (*model.Leader, error) {
	leader := &model.Leader{}
	err := row.Scan(
		&leader.ID, &leader.Email, &leader.DisplayName, &leader.AuthHash, &leader.CreatedAt, &leader.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaderNotFound
		}
		return nil, err
	}
	return leader, nil
}
