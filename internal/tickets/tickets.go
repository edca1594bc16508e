// Package tickets records support requests submitted from the dashboard.
package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"costboard/internal/core"
	"costboard/internal/log"
	"costboard/internal/store"
)

// DefaultMessage is stored when a request carries no message.
const DefaultMessage = "No message provided"

// MaxMessageLength bounds what a single ticket may hold.
const MaxMessageLength = 4000

type Service struct {
	store  store.TicketWriter
	now    func() time.Time
	newID  func() uuid.UUID
	logger *log.Logger
}

func NewService(w store.TicketWriter) *Service {
	return &Service{
		store:  w,
		now:    time.Now,
		newID:  uuid.New,
		logger: log.Default(log.ComponentTickets),
	}
}

// Submit creates and stores a ticket with a fresh id and a UTC timestamp.
func (s *Service) Submit(ctx context.Context, message string) (core.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultMessage
	}
	if len(message) > MaxMessageLength {
		return core.Ticket{}, fmt.Errorf("%w: over %d bytes", core.ErrMessageLength, MaxMessageLength)
	}

	t := core.Ticket{
		ID:        s.newID(),
		Message:   message,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.SaveTicket(ctx, t); err != nil {
		return core.Ticket{}, fmt.Errorf("save ticket: %w", err)
	}

	s.logger.InfoContext(ctx, "Support ticket created", "ticket_id", t.ID)
	return t, nil
}
