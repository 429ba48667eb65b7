package session

import (
	"sync"
	"testing"
)

func TestRecordAndEvaluate_BelowThreshold(t *testing.T) {
	tr := NewTracker()

	eval := tr.RecordAndEvaluate("s1", 1)
	if eval.Escalate {
		t.Fatal("should not escalate at 1 attempt")
	}
	if eval.TotalAttempts != 1 {
		t.Errorf("totalAttempts = %d, want 1", eval.TotalAttempts)
	}
	if eval.AttemptsRemaining != 2 {
		t.Errorf("attemptsRemaining = %d, want 2", eval.AttemptsRemaining)
	}
}

func TestRecordAndEvaluate_MaxMerge(t *testing.T) {
	tr := NewTracker()

	tr.RecordAndEvaluate("s1", 2)

	// Re-sending a transcript with fewer unhelpful marks never lowers the count.
	eval := tr.RecordAndEvaluate("s1", 1)
	if eval.TotalAttempts != 2 {
		t.Errorf("totalAttempts = %d, want 2 (max of stored and observed)", eval.TotalAttempts)
	}

	// A strictly larger observation raises it.
	eval = tr.RecordAndEvaluate("s1", 3)
	if eval.TotalAttempts != 3 {
		t.Errorf("totalAttempts = %d, want 3", eval.TotalAttempts)
	}
}

func TestRecordAndEvaluate_FiresAtThreshold(t *testing.T) {
	tr := NewTracker()

	eval := tr.RecordAndEvaluate("s1", 3)
	if !eval.Escalate {
		t.Fatal("expected escalation at threshold")
	}
	if eval.TotalAttempts != 3 {
		t.Errorf("totalAttempts = %d, want 3", eval.TotalAttempts)
	}

	// Firing clears the streak.
	status := tr.Query("s1")
	if status.Attempts != 0 {
		t.Errorf("attempts after fire = %d, want 0", status.Attempts)
	}
}

func TestRecordAndEvaluate_NoDoubleFire(t *testing.T) {
	tr := NewTracker()

	tr.RecordAndEvaluate("s1", 3)

	// The same streak cannot fire twice; a fresh low observation starts over.
	eval := tr.RecordAndEvaluate("s1", 1)
	if eval.Escalate {
		t.Error("cleared streak escalated again")
	}
	if eval.TotalAttempts != 1 {
		t.Errorf("totalAttempts = %d, want 1", eval.TotalAttempts)
	}
}

func TestRecordAndEvaluate_SessionsIndependent(t *testing.T) {
	tr := NewTracker()

	tr.RecordAndEvaluate("s1", 2)
	eval := tr.RecordAndEvaluate("s2", 1)
	if eval.TotalAttempts != 1 {
		t.Errorf("s2 totalAttempts = %d, want 1", eval.TotalAttempts)
	}
}

func TestQuery_UnknownSession(t *testing.T) {
	tr := NewTracker()

	status := tr.Query("nope")
	if status.Attempts != 0 || status.AttemptsRemaining != 3 || status.CanEscalate {
		t.Errorf("status = %+v, want zero attempts, 3 remaining", status)
	}
}

func TestQuery_NoSideEffects(t *testing.T) {
	tr := NewTracker()
	tr.RecordAndEvaluate("s1", 2)

	tr.Query("s1")
	tr.Query("s1")

	if got := tr.Query("s1").Attempts; got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestReset_Idempotent(t *testing.T) {
	tr := NewTracker()
	tr.RecordAndEvaluate("s1", 2)

	tr.Reset("s1")
	tr.Reset("s1")
	tr.Reset("never-seen")

	if got := tr.Query("s1").Attempts; got != 0 {
		t.Errorf("attempts after reset = %d, want 0", got)
	}
}

func TestRecordAndEvaluate_ConcurrentObservationsMerge(t *testing.T) {
	tr := NewTracker()

	// Concurrent re-sends of sub-threshold transcripts must merge by max:
	// no lost updates, no spurious escalation.
	const workers = 16
	var wg sync.WaitGroup
	fired := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		observed := i%2 + 1 // 1 or 2
		wg.Add(1)
		go func() {
			defer wg.Done()
			fired <- tr.RecordAndEvaluate("s1", observed).Escalate
		}()
	}
	wg.Wait()
	close(fired)

	for f := range fired {
		if f {
			t.Fatal("sub-threshold observations escalated")
		}
	}
	if got := tr.Query("s1").Attempts; got != 2 {
		t.Errorf("attempts = %d, want 2 (max of concurrent observations)", got)
	}
}
