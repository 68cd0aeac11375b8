package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/support-mesh/internal/api/dto"
	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/domain"
	"github.com/spec-kit/support-mesh/internal/service"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// TicketsHandler manages support ticket endpoints. Routes are expected to
// sit behind RoleGate.RequireTrustedIdentity.
type TicketsHandler struct {
	service *service.TicketService
	gate    *auth.RoleGate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, gate *auth.RoleGate) *TicketsHandler {
	return &TicketsHandler{service: ticketService, gate: gate}
}

// ListAll GET /support-tickets/all.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponses(tickets)})
}

// ListAllCached GET /support-tickets/all/cached.
func (h *TicketsHandler) ListAllCached(c *fiber.Ctx) error {
	tickets, err := h.service.ListAllCached(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponses(tickets)})
}

// ListMine GET /support-tickets/mine.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListByUser(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponses(tickets)})
}

// Get GET /support-tickets/:id. Owners see their own tickets; anyone else
// needs support staff or higher.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	// Someone else's ticket reads as missing unless the caller is staff.
	if ticket.UserID != identity.UserID {
		if err := h.gate.Authorize(c, domain.RoleSupportStaff); err != nil {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket)})
}

// Create POST /support-tickets/add.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), identity.UserID, service.TicketCreateInput{
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ToTicketResponse(ticket)})
}

// UpdateAsOwner PUT /support-tickets/update/:id.
func (h *TicketsHandler) UpdateAsOwner(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.OwnerUpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateAsOwner(c.UserContext(), identity.UserID, id, service.OwnerUpdateInput{
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket)})
}

// UpdateAsStaff PUT /support-tickets/update/staff/:id.
func (h *TicketsHandler) UpdateAsStaff(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.StaffUpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateAsStaff(c.UserContext(), identity.UserID, id, service.StaffUpdateInput{
		Status:     req.Status,
		Priority:   req.Priority,
		Resolution: req.Resolution,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket)})
}

// pathID returns the UUID path parameter name. Anything else cannot exist,
// so it reads as a missing resource.
func pathID(c *fiber.Ctx, name, resource string) (string, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return raw, nil
}

func callerIdentity(c *fiber.Ctx) (domain.IdentityEnvelope, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.IdentityEnvelope{}, apperrors.NewUnauthorized("unauthorized")
	}
	return identity, nil
}
