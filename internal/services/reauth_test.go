package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestReauthGate_RecordThenCheck(t *testing.T) {
	gate := NewReauthGate(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	if err := gate.RecordReauth(ctx, 1); err != nil {
		t.Fatalf("RecordReauth() error = %v", err)
	}

	status, err := gate.RequireRecent(ctx, 1)
	if err != nil {
		t.Fatalf("RequireRecent() error = %v", err)
	}
	if status != ReauthOK {
		t.Errorf("status = %v, expected ReauthOK", status)
	}
}

func TestReauthGate_MissingByDefault(t *testing.T) {
	gate := NewReauthGate(NewMemoryKV(), 15*time.Minute)

	status, err := gate.RequireRecent(context.Background(), 1)
	if err != nil {
		t.Fatalf("RequireRecent() error = %v", err)
	}
	if status != ReauthMissing {
		t.Errorf("status = %v, expected ReauthMissing", status)
	}
}

func TestReauthGate_ExpiresAfterWindow(t *testing.T) {
	gate := NewReauthGate(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	current := time.Now()
	gate.now = func() time.Time { return current }

	gate.RecordReauth(ctx, 1)

	current = current.Add(16 * time.Minute)
	status, err := gate.RequireRecent(ctx, 1)
	if err != nil {
		t.Fatalf("RequireRecent() error = %v", err)
	}
	// The memory store honors TTL, so the record reads as missing; either
	// way the gate must not report OK.
	if status == ReauthOK {
		t.Error("reauth older than the window must not pass")
	}
}

func TestReauthGate_StaleRecordReadsExpired(t *testing.T) {
	kv := NewMemoryKV()
	gate := NewReauthGate(kv, 15*time.Minute)
	ctx := context.Background()

	// A record whose timestamp is old but whose TTL has not fired, as can
	// happen when the window is shortened in config.
	old := time.Now().Add(-30 * time.Minute)
	kv.Set(ctx, "reauth:1", timestampString(old), time.Hour)

	status, err := gate.RequireRecent(ctx, 1)
	if err != nil {
		t.Fatalf("RequireRecent() error = %v", err)
	}
	if status != ReauthExpired {
		t.Errorf("status = %v, expected ReauthExpired", status)
	}
}

func TestReauthGate_FailsClosedOnStoreError(t *testing.T) {
	gate := NewReauthGate(failingKV{}, 15*time.Minute)

	status, err := gate.RequireRecent(context.Background(), 1)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, expected ErrStoreUnavailable", err)
	}
	if status == ReauthOK {
		t.Error("a store error must never grant reauth")
	}
}

func TestReauthGate_Clear(t *testing.T) {
	gate := NewReauthGate(NewMemoryKV(), 15*time.Minute)
	ctx := context.Background()

	gate.RecordReauth(ctx, 1)
	gate.Clear(ctx, 1)

	status, _ := gate.RequireRecent(ctx, 1)
	if status != ReauthMissing {
		t.Errorf("status = %v after clear, expected ReauthMissing", status)
	}
}

func timestampString(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
