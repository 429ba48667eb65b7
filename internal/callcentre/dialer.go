package callcentre

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/helpline/internal/models"
)

// CentreLine is the call centre's direct number, offered as the fallback
// contact channel when outbound dialing fails.
const CentreLine = "+27-10-210-0000"

// outboundNumbers is the pool the centre dials from.
var outboundNumbers = []string{
	"+27-10-210-0001",
	"+27-10-210-0002",
	"+27-10-210-0003",
}

// CallRequest describes an outbound callback to a customer.
type CallRequest struct {
	SessionID    string
	Phone        string
	CustomerName string
	Issue        string
	Urgency      string // "low", "medium", "high"
	ChatHistory  []models.ChatMessage
}

// CallResult reports the outcome of a placement attempt. A failed placement
// is a result, not an error: the ticket already exists and must not be
// rolled back.
type CallResult struct {
	Success                 bool   `json:"success"`
	CallID                  string `json:"callId"`
	Status                  string `json:"status"` // "initiated", "connecting", "connected", "failed"
	EstimatedConnectSeconds int    `json:"estimatedConnectTime"`
	AgentID                 string `json:"agentId,omitempty"`
	Message                 string `json:"message"`
}

// Dialer places outbound calls. Implementations are fire-and-report: the
// outcome is surfaced to the customer but never blocks or reverses ticket
// creation.
type Dialer interface {
	PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error)
}

// SimDialer simulates a telephony provider. Connect times, agent assignment
// and transient failures are drawn from an injectable random source so tests
// stay deterministic.
type SimDialer struct {
	mu   sync.Mutex // guards rand; calls are placed from concurrent requests
	rand *rand.Rand
	// FailureRate is the probability of a transient provider failure.
	FailureRate float64
}

// NewSimDialer returns a SimDialer seeded from the clock. Pass a non-nil rng
// to control outcomes in tests.
func NewSimDialer(rng *rand.Rand) *SimDialer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimDialer{rand: rng, FailureRate: 0.02}
}

// PlaceCall simulates dialing the customer. On transient provider failure it
// returns a failed CallResult carrying the fallback contact line.
func (d *SimDialer) PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	callID := NewCallID()

	d.mu.Lock()
	from := outboundNumbers[d.rand.Intn(len(outboundNumbers))]
	failed := d.rand.Float64() < d.FailureRate
	connectSeconds := d.rand.Intn(16) + 5 // 5-20 seconds
	agentID := fmt.Sprintf("AGENT-%d", d.rand.Intn(100)+1)
	d.mu.Unlock()

	if failed {
		return &CallResult{
			Success: false,
			CallID:  callID,
			Status:  "failed",
			Message: "Failed to initiate call. Please try again or contact us directly at " + CentreLine,
		}, nil
	}

	return &CallResult{
		Success:                 true,
		CallID:                  callID,
		Status:                  "initiated",
		EstimatedConnectSeconds: connectSeconds,
		AgentID:                 agentID,
		Message: fmt.Sprintf(
			"Call initiated successfully. You will receive a call from %s within %d seconds. Agent %s will assist you.",
			from, connectSeconds, agentID),
	}, nil
}

// NewCallID generates a call identifier.
func NewCallID() string {
	return fmt.Sprintf("CALL-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
