package ticket

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/helpline/internal/models"
)

var testBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fiberHistory() []models.ChatMessage {
	return []models.ChatMessage{
		{Text: "Hello! How can I help?", Timestamp: testBase},
		{Text: "My fiber connection is slow", Timestamp: testBase.Add(time.Minute)},
		{Text: "Try restarting your router", Timestamp: testBase.Add(2 * time.Minute), Satisfaction: models.SatisfactionUnhelpful},
	}
}

func billingHistory() []models.ChatMessage {
	return []models.ChatMessage{
		{Text: "Hello! How can I help?", Timestamp: testBase},
		{Text: "There is a wrong charge on my bill", Timestamp: testBase.Add(time.Minute)},
	}
}

// --- Create ---

func TestMemoryCreate_Defaults(t *testing.T) {
	s := NewMemoryStore()

	tk := &models.Ticket{TicketID: "TLK-1", SessionID: "s1", Reason: "threshold", ChatHistory: fiberHistory()}
	if err := s.Create(tk); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get("TLK-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusOpen {
		t.Errorf("status = %q, want open", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Error("createdAt not defaulted")
	}
	if got.Summary == nil {
		t.Fatal("summary not computed on create")
	}
	if got.Summary.MessageCount != 3 {
		t.Errorf("summary.messageCount = %d, want 3", got.Summary.MessageCount)
	}
}

func TestMemoryCreate_MissingID(t *testing.T) {
	s := NewMemoryStore()

	err := s.Create(&models.Ticket{SessionID: "s1"})
	if err == nil {
		t.Fatal("expected error for missing ticketId")
	}
}

func TestMemoryCreate_EmptyHistoryNoSummary(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Create(&models.Ticket{TicketID: "TLK-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := s.Get("TLK-1")
	if got.Summary != nil {
		t.Errorf("summary = %+v, want nil for empty history", got.Summary)
	}
}

func TestMemoryCreate_UpsertOverwrites(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Create(&models.Ticket{TicketID: "TLK-1", Reason: "first", ChatHistory: fiberHistory()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(&models.Ticket{TicketID: "TLK-1", Reason: "second", ChatHistory: billingHistory()}); err != nil {
		t.Fatalf("re-create: %v", err)
	}

	got, _ := s.Get("TLK-1")
	if got.Reason != "second" {
		t.Errorf("reason = %q, want %q (upsert)", got.Reason, "second")
	}
	if got.Summary == nil || len(got.Summary.KeyIssues) == 0 || got.Summary.KeyIssues[0] != "billing" {
		t.Errorf("summary not recomputed on upsert: %+v", got.Summary)
	}
}

// --- Get / List ---

func TestMemoryGet_NotFound(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryList_NewestFirst(t *testing.T) {
	s := NewMemoryStore()

	for i, id := range []string{"TLK-old", "TLK-mid", "TLK-new"} {
		tk := &models.Ticket{TicketID: id, CreatedAt: testBase.Add(time.Duration(i) * time.Hour)}
		if err := s.Create(tk); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	want := []string{"TLK-new", "TLK-mid", "TLK-old"}
	for i, id := range want {
		if list[i].TicketID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].TicketID, id)
		}
	}
}

// --- Update ---

func TestMemoryUpdate_PartialFields(t *testing.T) {
	s := NewMemoryStore()
	s.Create(&models.Ticket{TicketID: "TLK-1", Reason: "threshold", ChatHistory: fiberHistory()})

	status := models.StatusInProgress
	agent := "thandi"
	got, err := s.Update("TLK-1", UpdateFields{Status: &status, AssignedAgent: &agent})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("status = %q, want in_progress", got.Status)
	}
	if got.AssignedAgent != "thandi" {
		t.Errorf("assignedAgent = %q", got.AssignedAgent)
	}
	// Untouched fields survive.
	if got.Reason != "threshold" {
		t.Errorf("reason = %q, want unchanged", got.Reason)
	}
	if got.Summary == nil || got.Summary.KeyIssues[0] != "fiber" {
		t.Errorf("summary changed without a chat-history update: %+v", got.Summary)
	}
}

func TestMemoryUpdate_ChatHistoryRecomputesSummary(t *testing.T) {
	s := NewMemoryStore()
	s.Create(&models.Ticket{TicketID: "TLK-1", ChatHistory: fiberHistory()})

	got, err := s.Update("TLK-1", UpdateFields{ChatHistory: billingHistory()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Summary == nil {
		t.Fatal("summary missing after history update")
	}
	if got.Summary.KeyIssues[0] != "billing" {
		t.Errorf("keyIssues = %v, want billing first", got.Summary.KeyIssues)
	}
	if got.Summary.MessageCount != 2 {
		t.Errorf("messageCount = %d, want 2 (new history)", got.Summary.MessageCount)
	}
}

func TestMemoryUpdate_NotFoundDoesNotCreate(t *testing.T) {
	s := NewMemoryStore()

	status := models.StatusResolved
	if _, err := s.Update("ghost", UpdateFields{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Error("update of unknown id created a ticket")
	}
}

// --- Delete ---

func TestMemoryDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Create(&models.Ticket{TicketID: "TLK-1"})

	if err := s.Delete("TLK-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("TLK-1"); !errors.Is(err, ErrNotFound) {
		t.Error("ticket still present after delete")
	}
}

func TestMemoryDelete_NotFound(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- Isolation ---

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	s.Create(&models.Ticket{TicketID: "TLK-1", ChatHistory: fiberHistory()})

	got, _ := s.Get("TLK-1")
	got.ChatHistory[0].Text = "mutated"
	got.Summary.KeyIssues[0] = "mutated"

	fresh, _ := s.Get("TLK-1")
	if fresh.ChatHistory[0].Text == "mutated" {
		t.Error("stored chat history aliased to caller's copy")
	}
	if fresh.Summary.KeyIssues[0] == "mutated" {
		t.Error("stored summary aliased to caller's copy")
	}
}
