package controller

import (
	"shopnest-be/internal/dto"
	"shopnest-be/internal/pkg/apperrors"
	"shopnest-be/internal/pkg/serverutils"
	"shopnest-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IResolutionController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	VerifyAndResolve(ctx *fiber.Ctx) error
}

type resolutionController struct {
	resolutionService service.IResolutionService
}

func NewResolutionController(resolutionService service.IResolutionService) IResolutionController {
	return &resolutionController{
		resolutionService: resolutionService,
	}
}

func (c *resolutionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/resolutions")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Submit)
	h.Get("", serverutils.AdminOnly, c.List)
	h.Get(":id", c.Show)
	h.Post(":id/approve", serverutils.AdminOnly, c.Approve)
	h.Post(":id/reject", serverutils.AdminOnly, c.Reject)
	h.Post(":id/verify-and-resolve", serverutils.AdminOnly, c.VerifyAndResolve)
}

func (c *resolutionController) Submit(ctx *fiber.Ctx) error {
	customerIdStr, _ := ctx.Locals("user_id").(string)
	customerId, err := uuid.Parse(customerIdStr)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.SubmitResolutionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.resolutionService.Submit(ctx.Context(), customerId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Resolution request submitted", res))
}

func (c *resolutionController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid resolution id")
	}

	res, err := c.resolutionService.Get(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show resolution", res))
}

func (c *resolutionController) List(ctx *fiber.Ctx) error {
	var query dto.ListResolutionQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperrors.NewValidation("invalid query parameters")
	}

	res, err := c.resolutionService.List(ctx.Context(), &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list resolutions", res))
}

func (c *resolutionController) Approve(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid resolution id")
	}

	res, err := c.resolutionService.Approve(ctx.Context(), id, actor(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Resolution approved", res))
}

func (c *resolutionController) Reject(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid resolution id")
	}

	var req dto.RejectResolutionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.resolutionService.Reject(ctx.Context(), id, actor(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Resolution rejected", res))
}

func (c *resolutionController) VerifyAndResolve(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.NewValidation("invalid resolution id")
	}

	var req dto.VerifyResolveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperrors.NewValidation("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.resolutionService.VerifyAndResolve(ctx.Context(), id, actor(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Resolution verified", res))
}

func actor(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return "admin:" + id
}
