package controller

import (
	"shopnest-be/internal/dto"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/serverutils"
	"shopnest-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	CourierEvent(ctx *fiber.Ctx) error
}

type webhookController struct {
	webhookService service.IWebhookService
}

func NewWebhookController(webhookService service.IWebhookService) IWebhookController {
	return &webhookController{
		webhookService: webhookService,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	// Carrier callbacks authenticate with an HMAC signature, not a JWT.
	h := r.Group("/webhooks")
	h.Post("/courier", c.CourierEvent)
}

func (c *webhookController) CourierEvent(ctx *fiber.Ctx) error {
	signature := ctx.Get("X-Courier-Signature")
	if !c.webhookService.VerifySignature(ctx.Body(), signature) {
		return fiber.ErrUnauthorized
	}

	var req dto.CourierWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("malformed webhook payload")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.webhookService.HandleCourierEvent(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Event accepted", nil))
}
