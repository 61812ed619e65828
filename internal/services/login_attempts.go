package services

import (
	"sync"
	"time"
)

const attemptMapMaxEntries = 5000

// LoginAttemptTracker is a per-identifier sliding-window counter of failed
// login attempts. Once the count within the window reaches the threshold, a
// human-verification challenge must be presented before the next attempt is
// accepted. State is process-local; a restart resets the counters, which is
// an accepted availability/strictness tradeoff.
//
// The identifier is chosen per call site (client IP or submitted email):
// IP keying resists credential stuffing across many accounts from one host,
// email keying resists attacks that rotate IPs against one account. The
// tracker is agnostic to which.
type LoginAttemptTracker struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	attempts  map[string][]time.Time
	now       func() time.Time
}

func NewLoginAttemptTracker(window time.Duration, threshold int) *LoginAttemptTracker {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if threshold <= 0 {
		threshold = 3
	}
	return &LoginAttemptTracker{
		window:    window,
		threshold: threshold,
		attempts:  make(map[string][]time.Time),
		now:       time.Now,
	}
}

// RecordFailure appends a failure timestamp and prunes entries older than the window.
func (t *LoginAttemptTracker) RecordFailure(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	pruned := t.pruneLocked(identifier, now)
	pruned = append(pruned, now)

	// Keeping only the newest `threshold` timestamps bounds per-key memory;
	// the challenge decision needs no more history than that.
	if len(pruned) > t.threshold {
		pruned = pruned[len(pruned)-t.threshold:]
	}
	t.attempts[identifier] = pruned

	if len(t.attempts) > attemptMapMaxEntries {
		t.sweepLocked(now)
	}
}

// ResetFailures clears the identifier's record entirely (on successful login).
func (t *LoginAttemptTracker) ResetFailures(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, identifier)
}

// ShouldChallenge prunes, then reports whether the remaining failure count
// is at or above the threshold.
func (t *LoginAttemptTracker) ShouldChallenge(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pruned := t.pruneLocked(identifier, t.now())
	if len(pruned) == 0 {
		delete(t.attempts, identifier)
		return false
	}
	t.attempts[identifier] = pruned
	return len(pruned) >= t.threshold
}

func (t *LoginAttemptTracker) pruneLocked(identifier string, now time.Time) []time.Time {
	cutoff := now.Add(-t.window)
	hits := t.attempts[identifier]
	kept := hits[:0]
	for _, hit := range hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	return kept
}

// sweepLocked drops identifiers whose newest failure fell out of the window,
// so sustained attack traffic cannot grow the map without bound.
func (t *LoginAttemptTracker) sweepLocked(now time.Time) {
	cutoff := now.Add(-t.window)
	for identifier, hits := range t.attempts {
		if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
			delete(t.attempts, identifier)
		}
	}
}
