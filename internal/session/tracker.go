// Package session tracks per-session dissatisfaction streaks and decides
// when a conversation escalates to a human agent.
package session

import "sync"

// EscalationThreshold is the number of dissatisfaction signals that triggers
// escalation. Fixed by policy, not configuration.
const EscalationThreshold = 3

// Tracker maps session IDs to running dissatisfaction counts. State is
// volatile: a process restart loses in-flight streaks, which is accepted —
// the durable record is the ticket, not the streak.
type Tracker struct {
	mu       sync.Mutex
	attempts map[string]int
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{attempts: make(map[string]int)}
}

// Evaluation is the outcome of recording a feedback observation.
type Evaluation struct {
	Escalate          bool
	TotalAttempts     int
	AttemptsRemaining int
}

// Status is a read-only view of a session's streak.
type Status struct {
	Attempts          int
	AttemptsRemaining int
	CanEscalate       bool
}

// RecordAndEvaluate merges an observed unhelpful count into the session's
// streak and reports whether escalation fires. The stored count is the
// maximum of the previous count and the observation, so re-sent transcripts
// that already reflect prior dissatisfaction are never double-counted.
// When the threshold is reached the counter is cleared in the same critical
// section: one streak fires exactly once, even under concurrent feedback.
func (t *Tracker) RecordAndEvaluate(sessionID string, observed int) Evaluation {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.attempts[sessionID]
	if observed > total {
		total = observed
	}

	if total >= EscalationThreshold {
		delete(t.attempts, sessionID)
		return Evaluation{Escalate: true, TotalAttempts: total}
	}

	t.attempts[sessionID] = total
	return Evaluation{
		TotalAttempts:     total,
		AttemptsRemaining: EscalationThreshold - total,
	}
}

// Query reports a session's streak without side effects.
func (t *Tracker) Query(sessionID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	attempts := t.attempts[sessionID]
	remaining := EscalationThreshold - attempts
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Attempts:          attempts,
		AttemptsRemaining: remaining,
		CanEscalate:       attempts >= EscalationThreshold,
	}
}

// Reset clears a session's streak. Resetting an absent session is a no-op.
func (t *Tracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, sessionID)
}
