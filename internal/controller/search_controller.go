package controller

import (
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	StartSession(ctx *fiber.Ctx) error
	SubmitTurn(ctx *fiber.Ctx) error
	SearchByQueryText(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService *service.SearchService
}

func NewSearchController(searchService *service.SearchService) ISearchController {
	return &searchController{
		searchService: searchService,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Post("session", c.StartSession)
	h.Post("turn", c.SubmitTurn)
	h.Post("query-text", c.SearchByQueryText)
	h.Post("session/:id/reset", c.Reset)
}

func (c *searchController) StartSession(ctx *fiber.Ctx) error {
	res, err := c.searchService.StartSession(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *searchController) SubmitTurn(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.searchService.HandleTurn(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success handle turn", res))
}

func (c *searchController) SearchByQueryText(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.searchService.SearchByQueryText(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search by query text", res))
}

func (c *searchController) Reset(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return serverutils.NewAppError("VALIDATION_FAILED", "invalid session id", 400, err)
	}

	res, err := c.searchService.Reset(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset session", res))
}
