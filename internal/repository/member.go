package repository

import (
	"context"
	"database/sql"

	"github.com/rollcall/rollcall-go/internal/model"
)

// MemberRepository reads class rosters.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// ListByClass returns the active members assigned to a class, ordered by name.
func (r *MemberRepository) ListByClass(ctx context.Context, classNumber string) ([]model.Member, error) {
	query := `SELECT id, name, class_number, phone, email
		FROM members WHERE class_number = ? AND active = TRUE ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, classNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		var phone, email sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.AssignedClass, &phone, &email); err != nil {
			return nil, err
		}
		m.Phone = phone.String
		m.Email = email.String
		members = append(members, m)
	}

	return members, rows.Err()
}
