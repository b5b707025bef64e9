package localstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/rollcall/rollcall-go/internal/model"
)

// ReplaceRoster swaps the cached members of one class for the given list in
// a single transaction.
func (s *Store) ReplaceRoster(ctx context.Context, classNumber string, members []model.Member) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	classNumber = strings.TrimSpace(classNumber)
	if classNumber == "" {
		return model.ErrClassRequired
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE assigned_class = ?`, classNumber); err != nil {
		return fmt.Errorf("clear roster %s: %w", classNumber, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO members (id, name, assigned_class, phone, email, cached_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	assigned_class = excluded.assigned_class,
	phone = excluded.phone,
	email = excluded.email,
	cached_at = excluded.cached_at
`)
	if err != nil {
		return fmt.Errorf("prepare roster insert: %w", err)
	}
	defer stmt.Close()

	cachedAt := s.now().UTC().UnixMilli()
	for _, m := range members {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.Name, classNumber, m.Phone, m.Email, cachedAt); err != nil {
			return fmt.Errorf("cache member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster replace: %w", err)
	}
	return nil
}

// ListMembers returns the cached members of a class ordered by name.
func (s *Store) ListMembers(ctx context.Context, classNumber string) ([]model.Member, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, assigned_class, phone, email
FROM members
WHERE assigned_class = ?
ORDER BY name ASC, id ASC
`, strings.TrimSpace(classNumber))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.AssignedClass, &m.Phone, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// CachedClasses lists the distinct classes that have a cached roster.
func (s *Store) CachedClasses(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT assigned_class FROM members ORDER BY assigned_class`)
	if err != nil {
		return nil, fmt.Errorf("list cached classes: %w", err)
	}
	defer rows.Close()

	var classes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
