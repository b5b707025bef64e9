package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rollcall/rollcall-go/internal/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rollcall.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func submission(class string) model.Submission {
	return model.Submission{
		ClassNumber:   class,
		Date:          "2024-03-10",
		ServiceType:   model.ServiceSunday,
		MemberRecords: []model.MemberRecord{{MemberID: "7", Status: model.StatusPresent}},
		LeaderName:    "J. Smith",
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := s.Enqueue(context.Background(), submission("3")); err == nil {
		t.Fatal("expected error from nil store")
	}
}

func TestEnqueueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollcall.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	id, err := store.Enqueue(context.Background(), submission("3"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v, want item %d", pending, id)
	}
	got := pending[0]
	if got.Kind != model.KindAttendanceSubmission {
		t.Errorf("kind = %q", got.Kind)
	}
	if got.Payload.LeaderName != "J. Smith" || got.Payload.MemberRecords[0].MemberID != "7" {
		t.Errorf("payload not preserved: %+v", got.Payload)
	}
	if got.Synced {
		t.Error("new item must be pending")
	}
}

func TestListPendingOrderAndMarkSynced(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	var ids []int64
	for _, class := range []string{"1", "2", "3"} {
		id, err := store.Enqueue(ctx, submission(class))
		if err != nil {
			t.Fatalf("enqueue %s: %v", class, err)
		}
		ids = append(ids, id)
	}
	if !(ids[0] < ids[1] && ids[1] < ids[2]) {
		t.Fatalf("ids not monotonic: %v", ids)
	}

	if err := store.MarkSynced(ctx, ids[1]); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := store.MarkSynced(ctx, ids[1]); err != nil {
		t.Fatalf("mark synced twice: %v", err)
	}
	if err := store.MarkSynced(ctx, 9999); err != nil {
		t.Fatalf("mark unknown: %v", err)
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != ids[0] || pending[1].ID != ids[2] {
		t.Fatalf("pending = %+v", pending)
	}

	n, err := store.CountPending(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count pending = %d, %v", n, err)
	}

	item, err := store.Get(ctx, ids[1])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !item.Synced {
		t.Error("expected item to be synced")
	}
	if _, err := store.Get(ctx, 9999); err != ErrItemNotFound {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestPurgeSyncedOlderThan(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	enqueueAt := func(age time.Duration) int64 {
		t.Helper()
		store.now = func() time.Time { return now.Add(-age) }
		id, err := store.Enqueue(ctx, submission("3"))
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		return id
	}

	oldSynced := enqueueAt(8 * day)
	recentSynced := enqueueAt(6 * day)
	oldPending := enqueueAt(30 * day)

	for _, id := range []int64{oldSynced, recentSynced} {
		if err := store.MarkSynced(ctx, id); err != nil {
			t.Fatalf("mark synced: %v", err)
		}
	}

	store.now = func() time.Time { return now }
	n, err := store.PurgeSyncedOlderThan(ctx, 7*day)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}

	if _, err := store.Get(ctx, oldSynced); err != ErrItemNotFound {
		t.Errorf("8 day old synced item should be purged, got %v", err)
	}
	if _, err := store.Get(ctx, recentSynced); err != nil {
		t.Errorf("6 day old synced item should be kept: %v", err)
	}
	item, err := store.Get(ctx, oldPending)
	if err != nil {
		t.Fatalf("30 day old pending item should be kept: %v", err)
	}
	if item.Synced {
		t.Error("pending item changed state")
	}
}

func TestPurgeRejectsNegativeWindow(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.PurgeSyncedOlderThan(context.Background(), -time.Hour); err == nil {
		t.Fatal("expected error for negative window")
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Enqueue(ctx, submission("3")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestReplaceRoster(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.ReplaceRoster(ctx, "3", []model.Member{
		{ID: "7", Name: "Kofi"},
		{ID: "8", Name: "Ama", Phone: "555-0100"},
	}); err != nil {
		t.Fatalf("replace roster: %v", err)
	}
	if err := store.ReplaceRoster(ctx, "4", []model.Member{{ID: "9", Name: "Yaw"}}); err != nil {
		t.Fatalf("replace roster 4: %v", err)
	}

	members, err := store.ListMembers(ctx, "3")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 || members[0].Name != "Ama" || members[0].Phone != "555-0100" {
		t.Fatalf("members = %+v", members)
	}
	if members[0].AssignedClass != "3" {
		t.Errorf("assigned class = %q", members[0].AssignedClass)
	}

	// Member 8 moves to class 4; class 3 now only has 7.
	if err := store.ReplaceRoster(ctx, "3", []model.Member{{ID: "7", Name: "Kofi"}}); err != nil {
		t.Fatalf("replace roster again: %v", err)
	}
	if err := store.ReplaceRoster(ctx, "4", []model.Member{{ID: "9", Name: "Yaw"}, {ID: "8", Name: "Ama"}}); err != nil {
		t.Fatalf("replace roster 4 again: %v", err)
	}

	members, _ = store.ListMembers(ctx, "3")
	if len(members) != 1 || members[0].ID != "7" {
		t.Fatalf("class 3 members = %+v", members)
	}
	members, _ = store.ListMembers(ctx, "4")
	if len(members) != 2 {
		t.Fatalf("class 4 members = %+v", members)
	}

	classes, err := store.CachedClasses(ctx)
	if err != nil {
		t.Fatalf("cached classes: %v", err)
	}
	if len(classes) != 2 || classes[0] != "3" || classes[1] != "4" {
		t.Errorf("classes = %v", classes)
	}
}

func TestListMembersUnknownClass(t *testing.T) {
	store := openTempStore(t)

	members, err := store.ListMembers(context.Background(), "42")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if members == nil || len(members) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", members)
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	first, err := store.DeviceID(ctx)
	if err != nil {
		t.Fatalf("device id: %v", err)
	}
	if first == "" {
		t.Fatal("expected a device id")
	}
	second, err := store.DeviceID(ctx)
	if err != nil {
		t.Fatalf("device id again: %v", err)
	}
	if first != second {
		t.Fatalf("device id changed: %q then %q", first, second)
	}
}
