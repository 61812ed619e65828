package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingKV simulates an unreachable backing store.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", ErrStoreUnavailable }
func (failingKV) Set(context.Context, string, string, time.Duration) error {
	return ErrStoreUnavailable
}
func (failingKV) Del(context.Context, string) error { return ErrStoreUnavailable }

func TestSessionActivityStore_TouchThenCheck(t *testing.T) {
	store := NewSessionActivityStore(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	if err := store.Touch(ctx, 1); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	expired, err := store.IsIdleExpired(ctx, 1)
	if err != nil {
		t.Fatalf("IsIdleExpired() error = %v", err)
	}
	if expired {
		t.Error("fresh activity should not be idle-expired")
	}
}

func TestSessionActivityStore_NoRecordMeansExpired(t *testing.T) {
	store := NewSessionActivityStore(NewMemoryKV(), 15*time.Minute)

	expired, err := store.IsIdleExpired(context.Background(), 99)
	if err != nil {
		t.Fatalf("IsIdleExpired() error = %v", err)
	}
	if !expired {
		t.Error("a user with no activity record must count as idle-expired")
	}
}

func TestSessionActivityStore_ExpiresAfterIdleWindow(t *testing.T) {
	store := NewSessionActivityStore(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Touch(ctx, 1)

	current = current.Add(16 * time.Minute)
	expired, err := store.IsIdleExpired(ctx, 1)
	if err != nil {
		t.Fatalf("IsIdleExpired() error = %v", err)
	}
	if !expired {
		t.Error("activity older than the idle window should be expired")
	}
}

func TestSessionActivityStore_TouchExtends(t *testing.T) {
	store := NewSessionActivityStore(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Touch(ctx, 1)
	current = current.Add(10 * time.Minute)
	store.Touch(ctx, 1)
	current = current.Add(10 * time.Minute)

	expired, _ := store.IsIdleExpired(ctx, 1)
	if expired {
		t.Error("activity 10 minutes ago should keep the session alive")
	}
}

func TestSessionActivityStore_StoreErrorSurfaces(t *testing.T) {
	store := NewSessionActivityStore(failingKV{}, 15*time.Minute)

	expired, err := store.IsIdleExpired(context.Background(), 1)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, expected ErrStoreUnavailable", err)
	}
	if !expired {
		t.Error("an unreadable record must count as expired")
	}
}

func TestSessionActivityStore_GarbageRecordMeansExpired(t *testing.T) {
	kv := NewMemoryKV()
	store := NewSessionActivityStore(kv, 15*time.Minute)
	ctx := context.Background()

	kv.Set(ctx, "activity:1", "not-a-timestamp", time.Minute)

	expired, err := store.IsIdleExpired(ctx, 1)
	if err != nil {
		t.Fatalf("IsIdleExpired() error = %v", err)
	}
	if !expired {
		t.Error("an unparsable record must count as expired")
	}
}

func TestSessionActivityStore_Clear(t *testing.T) {
	store := NewSessionActivityStore(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	store.Touch(ctx, 1)
	store.Clear(ctx, 1)

	expired, _ := store.IsIdleExpired(ctx, 1)
	if !expired {
		t.Error("cleared activity should read as idle-expired")
	}
}
