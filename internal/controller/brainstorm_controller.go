package controller

import (
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBrainstormController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	PollReply(ctx *fiber.Ctx) error
}

type brainstormController struct {
	brainstormService *service.BrainstormService
}

func NewBrainstormController(brainstormService *service.BrainstormService) IBrainstormController {
	return &brainstormController{
		brainstormService: brainstormService,
	}
}

func (c *brainstormController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/brainstorm/v1")
	h.Post("", c.Start)
	h.Post(":id/message", c.SendMessage)
	h.Get(":id/reply", c.PollReply)
}

func (c *brainstormController) Start(ctx *fiber.Ctx) error {
	var req dto.StartBrainstormRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.brainstormService.Start(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start brainstorm", res))
}

func (c *brainstormController) SendMessage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError("VALIDATION_FAILED", "invalid brainstorm id", 400, err)
	}

	var req dto.BrainstormMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.brainstormService.Submit(id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send brainstorm message", struct{}{}))
}

func (c *brainstormController) PollReply(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError("VALIDATION_FAILED", "invalid brainstorm id", 400, err)
	}

	res, err := c.brainstormService.Poll(id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success poll brainstorm reply", res))
}
