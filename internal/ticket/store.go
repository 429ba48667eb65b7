// Package ticket stores escalation tickets. The Store interface is the swap
// point between the volatile in-memory reference store and the sqlite-backed
// store used by the service.
package ticket

import (
	"errors"
	"fmt"

	"github.com/zulandar/helpline/internal/models"
)

// ErrNotFound is returned when a ticket ID does not exist. Callers surface it
// distinctly from validation failures.
var ErrNotFound = errors.New("ticket: not found")

// UpdateFields carries a partial update. Nil fields are left untouched;
// a non-nil ChatHistory always triggers summary recomputation as part of the
// same update, so the stored summary is never stale relative to the history.
type UpdateFields struct {
	Status        *models.TicketStatus
	AssignedAgent *string
	ChatHistory   []models.ChatMessage
	SessionID     *string
	UserID        *string
	PhoneNumber   *string
	Attempts      *int
}

// Store is the escalation-ticket collection. Implementations serialize
// mutations per ticket; operations on different tickets may proceed in
// parallel.
type Store interface {
	// Create upserts a ticket by TicketID. Status defaults to open and the
	// summary is recomputed from the supplied chat history. Upsert semantics
	// make escalation-time creation and transcript re-sync idempotent.
	Create(t *models.Ticket) error

	// Get returns the ticket with the given ID, or ErrNotFound.
	Get(ticketID string) (*models.Ticket, error)

	// List returns all tickets sorted by creation time, newest first.
	List() ([]models.Ticket, error)

	// Update applies the supplied fields and returns the updated ticket.
	// Returns ErrNotFound for unknown IDs; never creates.
	Update(ticketID string, fields UpdateFields) (*models.Ticket, error)

	// Delete removes a ticket, returning ErrNotFound when absent.
	Delete(ticketID string) error
}

func validateTicket(t *models.Ticket) error {
	if t == nil {
		return fmt.Errorf("ticket: ticket is required")
	}
	if t.TicketID == "" {
		return fmt.Errorf("ticket: ticketId is required")
	}
	return nil
}
