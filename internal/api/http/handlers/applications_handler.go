package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// ApplicationsHandler exposes the staff application intents.
type ApplicationsHandler struct {
	service *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applicationService *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{service: applicationService}
}

// CreateApplication POST /v1/applications.
func (h *ApplicationsHandler) CreateApplication(c *fiber.Ctx) error {
	var req dto.CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Applicant.Missing() {
		return apperrors.NewValidationError("applicant id and username required", nil)
	}
	app, err := h.service.CreateApplication(c.UserContext(), req.Applicant.Domain(), req.Intake())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// Accept POST /v1/applications/:channel/accept.
func (h *ApplicationsHandler) Accept(c *fiber.Ctx) error {
	return h.decide(c, true)
}

// Reject POST /v1/applications/:channel/reject.
func (h *ApplicationsHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, false)
}

// ListPending GET /v1/applications.
func (h *ApplicationsHandler) ListPending(c *fiber.Ctx) error {
	apps := h.service.PendingApplications()
	items := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, dto.NewApplicationResponse(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *ApplicationsHandler) decide(c *fiber.Ctx, accepted bool) error {
	var req dto.DecideApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Decider.Missing() {
		return apperrors.NewValidationError("decider id and username required", nil)
	}
	app, err := h.service.HandleResponse(c.UserContext(), c.Params("channel"), req.Decider.Domain(), accepted, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}
