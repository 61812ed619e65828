package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// SessionActivityStore tracks "last seen" timestamps per user, backing the
// idle timeout that runs independently of token expiry. Records expire after
// the idle window, so an absent key already means "idle-expired"; the stored
// timestamp is still checked explicitly in case a backing store honors TTL
// imprecisely. Only the session-verification path writes these records.
type SessionActivityStore struct {
	kv          KVStore
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessionActivityStore(kv KVStore, idleTimeout time.Duration) *SessionActivityStore {
	return &SessionActivityStore{
		kv:          kv,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func activityKey(userID uint) string {
	return fmt.Sprintf("activity:%d", userID)
}

// Touch records activity now. Concurrent touches for the same user are
// last-write-wins; the timestamp only moves forward in the common case, so a
// stale write merely shifts the timeout decision by the race width.
func (s *SessionActivityStore) Touch(ctx context.Context, userID uint) error {
	millis := strconv.FormatInt(s.now().UnixMilli(), 10)
	return s.kv.Set(ctx, activityKey(userID), millis, s.idleTimeout)
}

// IsIdleExpired reports whether the user has been inactive past the idle
// window. It fails closed: an unreadable or unparsable record counts as
// expired, and a store error is surfaced so the caller can distinguish
// degradation from a genuine timeout.
func (s *SessionActivityStore) IsIdleExpired(ctx context.Context, userID uint) (bool, error) {
	value, err := s.kv.Get(ctx, activityKey(userID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return true, nil
		}
		return true, err
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return true, nil
	}

	lastActive := time.UnixMilli(millis)
	return s.now().Sub(lastActive) > s.idleTimeout, nil
}

// Clear drops the activity record (on logout).
func (s *SessionActivityStore) Clear(ctx context.Context, userID uint) error {
	return s.kv.Del(ctx, activityKey(userID))
}
