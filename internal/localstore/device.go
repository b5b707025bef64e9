package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const deviceIDKey = "device_id"

// DeviceID returns the stable identifier of this install, minting one on
// first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	var id string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM device_settings WHERE key = ?`, deviceIDKey,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	id = uuid.NewString()
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO device_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		deviceIDKey, id,
	); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}

	// Re-read so a concurrent first call settles on one value.
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM device_settings WHERE key = ?`, deviceIDKey,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	return id, nil
}
