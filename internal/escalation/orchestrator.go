// Package escalation turns per-message satisfaction feedback into escalation
// decisions and ticket records. The orchestrator composes the session
// tracker, the summarizer, the ticket store and the call-placement
// collaborator with direct calls; there is no event dispatch between them.
package escalation

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/helpline/internal/callcentre"
	"github.com/zulandar/helpline/internal/models"
	"github.com/zulandar/helpline/internal/session"
	"github.com/zulandar/helpline/internal/ticket"
)

// Notifier is told about newly created tickets. Delivery is best-effort.
type Notifier interface {
	TicketCreated(t *models.Ticket) error
}

// Opts wires an Orchestrator. Tracker, Store and Dialer are required;
// Rand, Now and NewTicketID have production defaults and exist as seams
// for tests.
type Opts struct {
	Tracker     *session.Tracker
	Store       ticket.Store
	Dialer      callcentre.Dialer
	Notifier    Notifier
	Rand        *rand.Rand
	Now         func() time.Time
	NewTicketID func() string
}

// Orchestrator owns the escalation state machine for every session:
// Normal -> ThresholdReached -> Escalated. The ticket lifecycle is
// independent after creation.
type Orchestrator struct {
	tracker     *session.Tracker
	store       ticket.Store
	dialer      callcentre.Dialer
	notifier    Notifier
	randMu      sync.Mutex // guards rand; requests are served concurrently
	rand        *rand.Rand
	now         func() time.Time
	newTicketID func() string
}

// New validates opts and returns an Orchestrator.
func New(opts Opts) (*Orchestrator, error) {
	if opts.Tracker == nil {
		return nil, fmt.Errorf("escalation: tracker is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("escalation: store is required")
	}
	if opts.Dialer == nil {
		return nil, fmt.Errorf("escalation: dialer is required")
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewTicketID == nil {
		opts.NewTicketID = NewTicketID
	}
	return &Orchestrator{
		tracker:     opts.Tracker,
		store:       opts.Store,
		dialer:      opts.Dialer,
		notifier:    opts.Notifier,
		rand:        opts.Rand,
		now:         opts.Now,
		newTicketID: opts.NewTicketID,
	}, nil
}

// NewTicketID generates an escalation ticket identifier.
func NewTicketID() string {
	return fmt.Sprintf("TLK-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// FeedbackRequest is one evaluation of a session's transcript.
type FeedbackRequest struct {
	SessionID   string               `json:"sessionId"`
	UserID      string               `json:"userId,omitempty"`
	Reason      string               `json:"reason"`
	ChatHistory []models.ChatMessage `json:"chatHistory"`
}

// FeedbackResult reports the escalation decision. Below the threshold only
// AttemptsRemaining and Message are set; at the threshold the ticket fields
// are populated.
type FeedbackResult struct {
	Escalate          bool   `json:"escalate"`
	AttemptsRemaining int    `json:"attemptsRemaining,omitempty"`
	Message           string `json:"message"`
	TicketID          string `json:"ticketId,omitempty"`
	EstimatedWaitTime int    `json:"estimatedWaitTime,omitempty"`
	AgentAvailable    bool   `json:"agentAvailable,omitempty"`
	CallbackNumber    string `json:"callbackNumber,omitempty"`
}

// EvaluateFeedback merges the transcript's unhelpful count into the session
// streak and, at the threshold, creates the escalation ticket. Ticket
// creation happens before any collaborator is contacted; the streak counter
// is cleared by the tracker in the same evaluation that fires.
func (o *Orchestrator) EvaluateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	if req.SessionID == "" {
		return nil, validationf("escalation: sessionId is required")
	}
	if req.Reason == "" {
		return nil, validationf("escalation: reason is required")
	}

	observed := models.UnhelpfulCount(req.ChatHistory)
	eval := o.tracker.RecordAndEvaluate(req.SessionID, observed)

	if !eval.Escalate {
		return &FeedbackResult{
			Escalate:          false,
			AttemptsRemaining: eval.AttemptsRemaining,
			Message: fmt.Sprintf(
				"We're sorry the AI assistant hasn't fully resolved your issue. You have %d more attempt(s) before we connect you with a human agent.",
				eval.AttemptsRemaining),
		}, nil
	}

	t := &models.Ticket{
		TicketID:    o.newTicketID(),
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		Attempts:    eval.TotalAttempts,
		CreatedAt:   o.now(),
		ChatHistory: req.ChatHistory,
		Status:      models.StatusOpen,
	}
	if err := o.store.Create(t); err != nil {
		return nil, fmt.Errorf("escalation: create ticket: %w", err)
	}

	if o.notifier != nil {
		if err := o.notifier.TicketCreated(t); err != nil {
			log.Printf("escalation: notify ticket %s: %v", t.TicketID, err)
		}
	}

	o.randMu.Lock()
	agentAvailable := o.rand.Float64() > 0.3
	var waitMinutes int
	if agentAvailable {
		waitMinutes = o.rand.Intn(5) + 1 // 1-5 minutes
	} else {
		waitMinutes = o.rand.Intn(30) + 10 // 10-40 minutes
	}
	o.randMu.Unlock()

	result := &FeedbackResult{
		Escalate:          true,
		TicketID:          t.TicketID,
		EstimatedWaitTime: waitMinutes,
		AgentAvailable:    agentAvailable,
		Message:           "We're connecting you with a human agent who can better assist you.",
	}
	if !agentAvailable {
		result.CallbackNumber = callcentre.CentreLine
	}
	return result, nil
}

// CallbackRequest asks the call centre to phone the customer back.
type CallbackRequest struct {
	SessionID    string               `json:"sessionId"`
	Phone        string               `json:"customerPhone"`
	CustomerName string               `json:"customerName,omitempty"`
	Issue        string               `json:"issue"`
	Urgency      string               `json:"urgency,omitempty"`
	ChatHistory  []models.ChatMessage `json:"chatHistory"`
}

// PlaceCall validates the callback number, records it on the session's
// newest ticket when one exists, and asks the dialer to place the call.
// Placement is fire-and-report: a provider failure is returned as a failed
// CallResult with a fallback contact channel and never touches the ticket.
func (o *Orchestrator) PlaceCall(ctx context.Context, req CallbackRequest) (*callcentre.CallResult, error) {
	if req.SessionID == "" {
		return nil, validationf("escalation: sessionId is required")
	}
	if req.Issue == "" {
		return nil, validationf("escalation: issue is required")
	}
	phone, err := callcentre.NormalizePhone(req.Phone)
	if err != nil {
		return nil, validationf("escalation: %v", err)
	}

	o.recordCallbackNumber(req.SessionID, phone)

	result, err := o.dialer.PlaceCall(ctx, callcentre.CallRequest{
		SessionID:    req.SessionID,
		Phone:        phone,
		CustomerName: req.CustomerName,
		Issue:        req.Issue,
		Urgency:      req.Urgency,
		ChatHistory:  req.ChatHistory,
	})
	if err != nil {
		log.Printf("escalation: place call for session %s: %v", req.SessionID, err)
		return &callcentre.CallResult{
			Success: false,
			Status:  "failed",
			Message: "Unable to initiate call at this time. Please contact us directly at " + callcentre.CentreLine + " for immediate assistance.",
		}, nil
	}
	return result, nil
}

// recordCallbackNumber stores the validated number on the session's most
// recent ticket. Best-effort: a session without a ticket is not an error.
func (o *Orchestrator) recordCallbackNumber(sessionID, phone string) {
	tickets, err := o.store.List()
	if err != nil {
		log.Printf("escalation: list tickets for session %s: %v", sessionID, err)
		return
	}
	for _, t := range tickets {
		if t.SessionID != sessionID {
			continue
		}
		if _, err := o.store.Update(t.TicketID, ticket.UpdateFields{PhoneNumber: &phone}); err != nil {
			log.Printf("escalation: record callback number on %s: %v", t.TicketID, err)
		}
		return
	}
}

// SessionStatus reports the tracked streak for a session.
func (o *Orchestrator) SessionStatus(sessionID string) (session.Status, error) {
	if sessionID == "" {
		return session.Status{}, validationf("escalation: sessionId is required")
	}
	return o.tracker.Query(sessionID), nil
}

// ResetSession clears a session's streak. Resetting an unknown session
// succeeds.
func (o *Orchestrator) ResetSession(sessionID string) error {
	if sessionID == "" {
		return validationf("escalation: sessionId is required")
	}
	o.tracker.Reset(sessionID)
	return nil
}

// SyncData is a client-held escalation record pushed after the fact.
type SyncData struct {
	SessionID   string               `json:"sessionId"`
	UserID      string               `json:"userId,omitempty"`
	Reason      string               `json:"reason"`
	Attempts    int                  `json:"attempts"`
	Timestamp   time.Time            `json:"timestamp"`
	ChatHistory []models.ChatMessage `json:"chatHistory"`
}

// SyncTranscript upserts a ticket from a client-held transcript. The store
// recomputes the summary from the full transcript as part of the same write,
// so the stored summary can never go stale. Upsert semantics make retries of
// this path idempotent.
func (o *Orchestrator) SyncTranscript(ticketID string, data SyncData) (*models.Ticket, error) {
	if ticketID == "" {
		return nil, validationf("escalation: ticketId is required")
	}

	t := &models.Ticket{
		TicketID:    ticketID,
		SessionID:   data.SessionID,
		UserID:      data.UserID,
		Reason:      data.Reason,
		Attempts:    data.Attempts,
		CreatedAt:   data.Timestamp,
		ChatHistory: data.ChatHistory,
	}
	if err := o.store.Create(t); err != nil {
		return nil, fmt.Errorf("escalation: sync transcript %s: %w", ticketID, err)
	}
	return t, nil
}
