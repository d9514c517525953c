package controller

import (
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return serverutils.NewAppError("VALIDATION_FAILED", "invalid session id", 400, err)
	}

	res, err := c.sessionService.GetHistory(id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return serverutils.NewAppError("VALIDATION_FAILED", "invalid session id", 400, err)
	}

	if err := c.sessionService.Delete(id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", struct{}{}))
}
