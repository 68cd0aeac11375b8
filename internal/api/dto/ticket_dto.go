package dto

import (
	"time"

	"github.com/spec-kit/support-mesh/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// OwnerUpdateTicketRequest payload. Absent fields are left unchanged.
type OwnerUpdateTicketRequest struct {
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// StaffUpdateTicketRequest payload. Absent fields are left unchanged.
type StaffUpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	Resolution *string                `json:"resolution"`
}

// TicketResponse is the wire form of a support ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Description string                `json:"description"`
	Resolution  string                `json:"resolution,omitempty"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToTicketResponse maps a domain ticket.
func ToTicketResponse(t *domain.SupportTicket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Status:      t.Status,
		Priority:    t.Priority,
		Description: t.Description,
		Resolution:  t.Resolution,
		ResolvedAt:  t.ResolvedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToTicketResponses maps a slice, never returning nil.
func ToTicketResponses(tickets []domain.SupportTicket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ToTicketResponse(&tickets[i]))
	}
	return out
}
