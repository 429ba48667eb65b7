package ticket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/helpline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ticketRow is the persisted shape of a ticket. Chat history and summary are
// stored as JSON text: the history is replaced wholesale on every update, so
// a relational layout buys nothing.
type ticketRow struct {
	TicketID      string `gorm:"primaryKey;size:64"`
	SessionID     string `gorm:"size:64;index"`
	UserID        string `gorm:"size:64"`
	PhoneNumber   string `gorm:"size:32"`
	Reason        string `gorm:"type:text"`
	Attempts      int
	Status        string `gorm:"size:16;default:open;index"`
	AssignedAgent string `gorm:"size:64"`
	ChatHistory   string `gorm:"type:json"`
	Summary       string `gorm:"type:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ticketRow) TableName() string {
	return "tickets"
}

// GormStore persists tickets in a gorm-managed database (sqlite in the
// default deployment).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the tickets table and returns a store backed by db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("ticket: db is required")
	}
	if err := db.AutoMigrate(&ticketRow{}); err != nil {
		return nil, fmt.Errorf("ticket: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(t *models.Ticket) error {
	if err := validateTicket(t); err != nil {
		return err
	}
	prepareForCreate(t)

	row, err := rowFromTicket(*t)
	if err != nil {
		return err
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("ticket: create %s: %w", t.TicketID, err)
	}
	return nil
}

func (s *GormStore) Get(ticketID string) (*models.Ticket, error) {
	var row ticketRow
	err := s.db.Where("ticket_id = ?", ticketID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket: get %s: %w", ticketID, err)
	}
	return row.toTicket()
}

func (s *GormStore) List() ([]models.Ticket, error) {
	var rows []ticketRow
	if err := s.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ticket: list: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTicket()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, nil
}

func (s *GormStore) Update(ticketID string, fields UpdateFields) (*models.Ticket, error) {
	var updated *models.Ticket
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row ticketRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ticket_id = ?", ticketID).Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("ticket: update %s: %w", ticketID, err)
		}

		t, err := row.toTicket()
		if err != nil {
			return err
		}
		applyFields(t, fields)

		newRow, err := rowFromTicket(*t)
		if err != nil {
			return err
		}
		if err := tx.Save(&newRow).Error; err != nil {
			return fmt.Errorf("ticket: update %s: %w", ticketID, err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) Delete(ticketID string) error {
	result := s.db.Where("ticket_id = ?", ticketID).Delete(&ticketRow{})
	if result.Error != nil {
		return fmt.Errorf("ticket: delete %s: %w", ticketID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func rowFromTicket(t models.Ticket) (ticketRow, error) {
	history, err := json.Marshal(t.ChatHistory)
	if err != nil {
		return ticketRow{}, fmt.Errorf("ticket: marshal chat history for %s: %w", t.TicketID, err)
	}
	summary := ""
	if t.Summary != nil {
		raw, err := json.Marshal(t.Summary)
		if err != nil {
			return ticketRow{}, fmt.Errorf("ticket: marshal summary for %s: %w", t.TicketID, err)
		}
		summary = string(raw)
	}
	return ticketRow{
		TicketID:      t.TicketID,
		SessionID:     t.SessionID,
		UserID:        t.UserID,
		PhoneNumber:   t.PhoneNumber,
		Reason:        t.Reason,
		Attempts:      t.Attempts,
		Status:        string(t.Status),
		AssignedAgent: t.AssignedAgent,
		ChatHistory:   string(history),
		Summary:       summary,
		CreatedAt:     t.CreatedAt,
	}, nil
}

func (r ticketRow) toTicket() (*models.Ticket, error) {
	t := models.Ticket{
		TicketID:      r.TicketID,
		SessionID:     r.SessionID,
		UserID:        r.UserID,
		PhoneNumber:   r.PhoneNumber,
		Reason:        r.Reason,
		Attempts:      r.Attempts,
		Status:        models.TicketStatus(r.Status),
		AssignedAgent: r.AssignedAgent,
		CreatedAt:     r.CreatedAt,
	}
	if r.ChatHistory != "" && r.ChatHistory != "null" {
		if err := json.Unmarshal([]byte(r.ChatHistory), &t.ChatHistory); err != nil {
			return nil, fmt.Errorf("ticket: unmarshal chat history for %s: %w", r.TicketID, err)
		}
	}
	if r.Summary != "" {
		var summary models.ChatSummary
		if err := json.Unmarshal([]byte(r.Summary), &summary); err != nil {
			return nil, fmt.Errorf("ticket: unmarshal summary for %s: %w", r.TicketID, err)
		}
		t.Summary = &summary
	}
	return &t, nil
}
