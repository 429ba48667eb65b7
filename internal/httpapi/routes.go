package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/helpline/internal/escalation"
	"github.com/zulandar/helpline/internal/models"
	"github.com/zulandar/helpline/internal/session"
	"github.com/zulandar/helpline/internal/ticket"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, orch *escalation.Orchestrator, store ticket.Store) {
	router.GET("/healthz", handleHealth)

	router.POST("/api/escalate", handleEvaluateFeedback(orch))
	router.GET("/api/escalate", handleSessionStatus(orch))
	router.DELETE("/api/escalate", handleResetSession(orch))

	router.POST("/api/call-centre", handlePlaceCall(orch))
	router.GET("/api/call-centre", handleCallStatus)

	admin := router.Group("/api/admin")
	admin.GET("/tickets", handleListTickets(store))
	admin.POST("/tickets", handleCreateTicket(store))
	admin.PATCH("/tickets", handleUpdateTicket(store))
	admin.DELETE("/tickets", handleDeleteTicket(store))
	admin.POST("/sync-transcript", handleSyncTranscript(orch))
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the error taxonomy onto status codes: validation failures
// are 400, unknown tickets 404, everything else 500.
func writeError(c *gin.Context, err error) {
	switch {
	case escalation.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ticket.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func handleEvaluateFeedback(orch *escalation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req escalation.FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		result, err := orch.EvaluateFeedback(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleSessionStatus(orch *escalation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		status, err := orch.SessionStatus(sessionID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"sessionId":           sessionID,
			"attempts":            status.Attempts,
			"attemptsRemaining":   status.AttemptsRemaining,
			"escalationThreshold": session.EscalationThreshold,
			"canEscalate":         status.CanEscalate,
		})
	}
}

func handleResetSession(orch *escalation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		if err := orch.ResetSession(sessionID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Session " + sessionID + " attempts reset",
		})
	}
}

func handlePlaceCall(orch *escalation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req escalation.CallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		result, err := orch.PlaceCall(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleCallStatus probes call progress. The simulated provider has no real
// call state to report, so this mirrors its canned answer.
func handleCallStatus(c *gin.Context) {
	callID := c.Query("callId")
	if callID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing callId parameter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"callId":  callID,
		"status":  "connected",
		"agentId": "AGENT-42",
	})
}

func handleListTickets(store ticket.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := store.List()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tickets": tickets,
			"count":   len(tickets),
		})
	}
}

func handleCreateTicket(store ticket.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var t models.Ticket
		if err := c.ShouldBindJSON(&t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if t.TicketID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticketId"})
			return
		}
		if err := store.Create(&t); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"ticket":  t,
			"message": "Ticket created successfully",
		})
	}
}

// updateTicketRequest distinguishes absent fields from zero values so a PATCH
// only overwrites what it supplies.
type updateTicketRequest struct {
	TicketID      string               `json:"ticketId"`
	Status        *models.TicketStatus `json:"status"`
	AssignedAgent *string              `json:"assignedAgent"`
	ChatHistory   []models.ChatMessage `json:"chatHistory"`
	SessionID     *string              `json:"sessionId"`
	UserID        *string              `json:"userId"`
	PhoneNumber   *string              `json:"phoneNumber"`
	Attempts      *int                 `json:"attempts"`
}

func handleUpdateTicket(store ticket.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.TicketID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticketId"})
			return
		}
		if req.Status != nil && !models.ValidStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updated, err := store.Update(req.TicketID, ticket.UpdateFields{
			Status:        req.Status,
			AssignedAgent: req.AssignedAgent,
			ChatHistory:   req.ChatHistory,
			SessionID:     req.SessionID,
			UserID:        req.UserID,
			PhoneNumber:   req.PhoneNumber,
			Attempts:      req.Attempts,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"ticket":  updated,
			"message": "Ticket updated successfully",
		})
	}
}

func handleDeleteTicket(store ticket.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID := c.Query("ticketId")
		if ticketID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticketId parameter"})
			return
		}
		if err := store.Delete(ticketID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Ticket deleted successfully",
		})
	}
}

// syncTranscriptRequest carries a client-held escalation record.
type syncTranscriptRequest struct {
	TicketID       string              `json:"ticketId"`
	EscalationData escalation.SyncData `json:"escalationData"`
}

func handleSyncTranscript(orch *escalation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncTranscriptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.TicketID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing escalationData or ticketId"})
			return
		}
		t, err := orch.SyncTranscript(req.TicketID, req.EscalationData)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "Chat history synced successfully",
			"ticketId": t.TicketID,
		})
	}
}
