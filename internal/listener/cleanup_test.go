package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskpulse/taskpulse/internal/storage"
)

func TestCleanupTick(t *testing.T) {
	h := newHarness(t)
	h.at(local(2025, time.March, 10, 0, 0))

	oldTime := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	h.db.Conn().Exec(`
		INSERT INTO notifications (id, kind, title, read, dismissed, created_at)
		VALUES ('old-read', 'system', 'Old Read', TRUE, FALSE, ?)
	`, oldTime)

	if err := h.svc.cleanupTick(context.Background()); err != nil {
		t.Fatalf("cleanup tick: %v", err)
	}

	if _, err := h.notifier.Get(context.Background(), "old-read"); err == nil {
		t.Error("expected old read notification to be deleted")
	}

	if len(h.store.cleanups) != 1 {
		t.Fatalf("remote cleanups = %d, want 1", len(h.store.cleanups))
	}
	call := h.store.cleanups[0]
	if call.userID != "store-bob" {
		t.Errorf("cleanup user = %q, want store-bob", call.userID)
	}
	want := local(2025, time.March, 9, 0, 0)
	if !call.before.Equal(want) {
		t.Errorf("cleanup cutoff = %v, want %v", call.before, want)
	}
}

func TestCleanupTickKeepsUnread(t *testing.T) {
	h := newHarness(t)
	h.at(local(2025, time.March, 10, 0, 0))

	oldTime := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	h.db.Conn().Exec(`
		INSERT INTO notifications (id, kind, title, read, dismissed, created_at)
		VALUES ('old-unread', 'system', 'Old Unread', FALSE, FALSE, ?)
	`, oldTime)

	if err := h.svc.cleanupTick(context.Background()); err != nil {
		t.Fatalf("cleanup tick: %v", err)
	}

	if _, err := h.notifier.Get(context.Background(), "old-unread"); err != nil {
		t.Error("expected old unread notification to survive cleanup")
	}
}

func TestCleanupTickStoreNotConfigured(t *testing.T) {
	h := newHarness(t)
	h.settings.Delete(storage.KeyStoreURL)
	h.at(local(2025, time.March, 10, 0, 0))

	if err := h.svc.cleanupTick(context.Background()); err != nil {
		t.Fatalf("cleanup tick: %v", err)
	}
	if len(h.store.cleanups) != 0 {
		t.Error("remote cleanup called without store credentials")
	}
}

func TestCleanupTickRemoteFailure(t *testing.T) {
	h := newHarness(t)
	h.at(local(2025, time.March, 10, 0, 0))
	h.store.deleteErr = errors.New("boom")

	if err := h.svc.cleanupTick(context.Background()); err == nil {
		t.Error("expected error when remote cleanup fails")
	}
}

func TestUntilNextMidnight(t *testing.T) {
	if got := untilNextMidnight(local(2025, time.March, 10, 23, 30)); got != 30*time.Minute {
		t.Errorf("delay at 23:30 = %v, want 30m", got)
	}
	// At midnight exactly the first run waits a full day.
	if got := untilNextMidnight(local(2025, time.March, 10, 0, 0)); got != 24*time.Hour {
		t.Errorf("delay at midnight = %v, want 24h", got)
	}
}
