package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ReauthStatus is the outcome of a recent-reauthentication check.
type ReauthStatus int

const (
	ReauthOK ReauthStatus = iota
	ReauthMissing
	ReauthExpired
)

func (s ReauthStatus) String() string {
	switch s {
	case ReauthOK:
		return "OK"
	case ReauthMissing:
		return "MISSING"
	case ReauthExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// ReauthGate tracks when a user last re-proved their password and gates
// sensitive operations on that being within a rolling window. The window is
// configured independently of the idle timeout; the two serve different
// purposes and must not be conflated.
//
// Unlike the activity store, the gate has no in-memory fallback: silently
// granting reauth while the store is down would be a privilege-escalation
// risk, so store errors propagate and callers fail closed.
type ReauthGate struct {
	kv     KVStore
	window time.Duration
	now    func() time.Time
}

func NewReauthGate(kv KVStore, window time.Duration) *ReauthGate {
	return &ReauthGate{
		kv:     kv,
		window: window,
		now:    time.Now,
	}
}

func reauthKey(userID uint) string {
	return fmt.Sprintf("reauth:%d", userID)
}

// RecordReauth marks a successful password re-entry. Only the password
// re-verification endpoint may call this.
func (g *ReauthGate) RecordReauth(ctx context.Context, userID uint) error {
	millis := strconv.FormatInt(g.now().UnixMilli(), 10)
	return g.kv.Set(ctx, reauthKey(userID), millis, g.window)
}

// RequireRecent reports whether the user re-entered their password within
// the window. The age check is performed even though the record carries its
// own TTL; some backing stores do not honor TTL precisely.
func (g *ReauthGate) RequireRecent(ctx context.Context, userID uint) (ReauthStatus, error) {
	value, err := g.kv.Get(ctx, reauthKey(userID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return ReauthMissing, nil
		}
		return ReauthMissing, err
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return ReauthMissing, nil
	}

	if g.now().Sub(time.UnixMilli(millis)) > g.window {
		return ReauthExpired, nil
	}
	return ReauthOK, nil
}

// Clear drops the reauth record (on logout).
func (g *ReauthGate) Clear(ctx context.Context, userID uint) error {
	return g.kv.Del(ctx, reauthKey(userID))
}
