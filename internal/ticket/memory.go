package ticket

import (
	"sort"
	"sync"
	"time"

	"github.com/zulandar/helpline/internal/models"
	"github.com/zulandar/helpline/internal/summarize"
)

// MemoryStore keeps tickets in a mutex-guarded map. It is the reference
// volatile store: contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]models.Ticket
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]models.Ticket)}
}

func (s *MemoryStore) Create(t *models.Ticket) error {
	if err := validateTicket(t); err != nil {
		return err
	}
	prepareForCreate(t)

	s.mu.Lock()
	s.tickets[t.TicketID] = cloneTicket(*t)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ticketID string) (*models.Ticket, error) {
	s.mu.RLock()
	t, ok := s.tickets[ticketID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	t = cloneTicket(t)
	return &t, nil
}

func (s *MemoryStore) List() ([]models.Ticket, error) {
	s.mu.RLock()
	list := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		list = append(list, cloneTicket(t))
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MemoryStore) Update(ticketID string, fields UpdateFields) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	applyFields(&t, fields)
	s.tickets[ticketID] = cloneTicket(t)
	return &t, nil
}

func (s *MemoryStore) Delete(ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[ticketID]; !ok {
		return ErrNotFound
	}
	delete(s.tickets, ticketID)
	return nil
}

// prepareForCreate fills defaults and the derived summary on a ticket about
// to be stored.
func prepareForCreate(t *models.Ticket) {
	if t.Status == "" {
		t.Status = models.StatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if len(t.ChatHistory) > 0 {
		summary := summarize.Summarize(t.ChatHistory)
		t.Summary = &summary
	} else {
		t.Summary = nil
	}
}

// applyFields overwrites only the supplied fields. A supplied chat history
// replaces the stored one wholesale and regenerates the summary.
func applyFields(t *models.Ticket, fields UpdateFields) {
	if fields.Status != nil {
		t.Status = *fields.Status
	}
	if fields.AssignedAgent != nil {
		t.AssignedAgent = *fields.AssignedAgent
	}
	if fields.SessionID != nil {
		t.SessionID = *fields.SessionID
	}
	if fields.UserID != nil {
		t.UserID = *fields.UserID
	}
	if fields.PhoneNumber != nil {
		t.PhoneNumber = *fields.PhoneNumber
	}
	if fields.Attempts != nil {
		t.Attempts = *fields.Attempts
	}
	if fields.ChatHistory != nil {
		t.ChatHistory = fields.ChatHistory
		summary := summarize.Summarize(t.ChatHistory)
		t.Summary = &summary
	}
}

func cloneTicket(t models.Ticket) models.Ticket {
	if t.ChatHistory != nil {
		t.ChatHistory = append([]models.ChatMessage(nil), t.ChatHistory...)
	}
	if t.Summary != nil {
		summary := *t.Summary
		summary.KeyIssues = append([]string(nil), summary.KeyIssues...)
		summary.EscalationTriggers = append([]string(nil), summary.EscalationTriggers...)
		t.Summary = &summary
	}
	return t
}
