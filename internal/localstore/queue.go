package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rollcall/rollcall-go/internal/model"
)

// ErrItemNotFound is returned by Get for an unknown queue id.
var ErrItemNotFound = errors.New("queue item not found")

// Enqueue durably appends a submission to the sync queue and returns its id.
// The row is committed before Enqueue returns.
func (s *Store) Enqueue(ctx context.Context, sub model.Submission) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sync_queue (kind, payload, enqueued_at, synced) VALUES (?, ?, ?, 0)`,
		string(model.KindAttendanceSubmission),
		string(payload),
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("enqueue id: %w", err)
	}
	return id, nil
}

// ListPending returns every unsynced item, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]model.SyncQueueItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, payload, enqueued_at, synced
FROM sync_queue
WHERE synced = 0
ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var items []model.SyncQueueItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	return items, nil
}

// MarkSynced flags an item as confirmed by the remote. Marking an already
// synced or unknown id is a no-op.
func (s *Store) MarkSynced(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sync_queue SET synced = 1 WHERE id = ? AND synced = 0`, id,
	); err != nil {
		return fmt.Errorf("mark synced %d: %w", id, err)
	}
	return nil
}

// PurgeSyncedOlderThan deletes synced items enqueued before now-window and
// reports how many were removed. Pending items are never touched.
func (s *Store) PurgeSyncedOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if window < 0 {
		return 0, fmt.Errorf("retention window must not be negative")
	}

	cutoff := s.now().Add(-window).UTC().UnixMilli()
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE synced = 1 AND enqueued_at < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge synced rows: %w", err)
	}
	return n, nil
}

// CountPending returns the number of unsynced items.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE synced = 0`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// Get returns one queue item regardless of its synced flag.
func (s *Store) Get(ctx context.Context, id int64) (model.SyncQueueItem, error) {
	if err := s.ready(ctx); err != nil {
		return model.SyncQueueItem{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, kind, payload, enqueued_at, synced FROM sync_queue WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SyncQueueItem{}, ErrItemNotFound
	}
	return item, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.SyncQueueItem, error) {
	var (
		item       model.SyncQueueItem
		kind       string
		payload    string
		enqueuedAt int64
		synced     int
	)
	if err := row.Scan(&item.ID, &kind, &payload, &enqueuedAt, &synced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return item, err
		}
		return item, fmt.Errorf("scan queue item: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &item.Payload); err != nil {
		return item, fmt.Errorf("decode payload of item %d: %w", item.ID, err)
	}
	item.Kind = model.QueueKind(kind)
	item.EnqueuedAt = time.UnixMilli(enqueuedAt).UTC()
	item.Synced = synced != 0
	return item, nil
}
