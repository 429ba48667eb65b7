package models

import "time"

// TicketStatus is the lifecycle state of an escalation ticket. Transitions
// are driven only by explicit administrative action, never by call outcomes.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
)

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Ticket is an escalation record created when a session crosses the
// dissatisfaction threshold. TicketID is assigned by the creator; the store
// treats Create as an upsert by ID.
type Ticket struct {
	TicketID      string        `json:"ticketId"`
	SessionID     string        `json:"sessionId"`
	UserID        string        `json:"userId,omitempty"`
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	Reason        string        `json:"reason"`
	Attempts      int           `json:"attempts"`
	CreatedAt     time.Time     `json:"timestamp"`
	ChatHistory   []ChatMessage `json:"chatHistory"`
	Status        TicketStatus  `json:"status"`
	AssignedAgent string        `json:"assignedAgent,omitempty"`
	Summary       *ChatSummary  `json:"summary,omitempty"`
}
