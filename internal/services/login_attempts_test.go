package services

import (
	"testing"
	"time"
)

func TestLoginAttemptTracker_BelowThreshold(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)

	tracker.RecordFailure("1.2.3.4")
	tracker.RecordFailure("1.2.3.4")

	if tracker.ShouldChallenge("1.2.3.4") {
		t.Error("two failures should not require a challenge at threshold 3")
	}
}

func TestLoginAttemptTracker_AtThreshold(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("1.2.3.4")
	}

	if !tracker.ShouldChallenge("1.2.3.4") {
		t.Error("three failures should require a challenge at threshold 3")
	}
}

func TestLoginAttemptTracker_WindowExpiry(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)
	current := time.Now()
	tracker.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("1.2.3.4")
	}

	current = current.Add(16 * time.Minute)
	if tracker.ShouldChallenge("1.2.3.4") {
		t.Error("failures older than the window should not count")
	}
}

func TestLoginAttemptTracker_SlidingWindow(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)
	current := time.Now()
	tracker.now = func() time.Time { return current }

	tracker.RecordFailure("1.2.3.4")
	tracker.RecordFailure("1.2.3.4")

	// Two old failures age out; a later pair alone stays below threshold.
	current = current.Add(14 * time.Minute)
	tracker.RecordFailure("1.2.3.4")

	current = current.Add(2 * time.Minute)
	tracker.RecordFailure("1.2.3.4")

	if tracker.ShouldChallenge("1.2.3.4") {
		t.Error("only two failures remain inside the window")
	}
}

func TestLoginAttemptTracker_ResetOnSuccess(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("1.2.3.4")
	}
	tracker.ResetFailures("1.2.3.4")

	if tracker.ShouldChallenge("1.2.3.4") {
		t.Error("reset should clear the failure record")
	}
}

func TestLoginAttemptTracker_IndependentIdentifiers(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure("1.2.3.4")
	}

	if tracker.ShouldChallenge("5.6.7.8") {
		t.Error("failures must not leak across identifiers")
	}
}

func TestLoginAttemptTracker_BoundedHistory(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)

	for i := 0; i < 100; i++ {
		tracker.RecordFailure("1.2.3.4")
	}

	tracker.mu.Lock()
	stored := len(tracker.attempts["1.2.3.4"])
	tracker.mu.Unlock()

	if stored > 3 {
		t.Errorf("stored %d timestamps, expected at most the threshold (3)", stored)
	}
}

func TestLoginAttemptTracker_MapSweep(t *testing.T) {
	tracker := NewLoginAttemptTracker(15*time.Minute, 3)
	current := time.Now()
	tracker.now = func() time.Time { return current }

	for i := 0; i < attemptMapMaxEntries; i++ {
		tracker.RecordFailure(string(rune(i)))
	}

	// Everything ages out; the next failure should sweep the map.
	current = current.Add(16 * time.Minute)
	tracker.RecordFailure("fresh")

	tracker.mu.Lock()
	size := len(tracker.attempts)
	tracker.mu.Unlock()

	if size != 1 {
		t.Errorf("map size = %d after sweep, expected 1", size)
	}
}
