package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket intents to the dispatch glue.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /v1/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Requester.Missing() {
		return apperrors.NewValidationError("requester id and username required", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), req.Requester.Domain(), req.Intake())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ClaimTicket POST /v1/tickets/:channel/claim.
func (h *TicketsHandler) ClaimTicket(c *fiber.Ctx) error {
	req, err := parseAction(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ClaimTicket(c.UserContext(), c.Params("channel"), req.Actor.Domain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CloseTicket POST /v1/tickets/:channel/close. The channel is deleted after
// the grace delay, hence 202.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	req, err := parseAction(c)
	if err != nil {
		return err
	}
	channelID := c.Params("channel")
	if err := h.service.CloseTicket(c.UserContext(), channelID, req.Actor.Domain()); err != nil {
		return err
	}
	ticket, err := h.service.Ticket(c.UserContext(), channelID)
	if err != nil {
		// Already deleted when the grace delay is zero.
		return c.SendStatus(http.StatusAccepted)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CreateTranscript POST /v1/tickets/:channel/transcript.
func (h *TicketsHandler) CreateTranscript(c *fiber.Ctx) error {
	transcript, err := h.service.CreateTranscript(c.UserContext(), c.Params("channel"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TranscriptResponse{
		FileName: transcript.FileName(),
		Lines:    len(transcript.Lines),
		Content:  transcript.Render(),
	}})
}

// ListTickets GET /v1/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets := h.service.ListOpenTickets()
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Statistics GET /v1/stats.
func (h *TicketsHandler) Statistics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(h.service.Statistics())})
}

func parseAction(c *fiber.Ctx) (dto.TicketActionRequest, error) {
	var req dto.TicketActionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Actor.Missing() {
		return req, apperrors.NewValidationError("actor id and username required", nil)
	}
	return req, nil
}
