package controller

import (
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDatasetController interface {
	RegisterRoutes(r fiber.Router)
	Upsert(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type datasetController struct {
	datasetService *service.DatasetService
}

func NewDatasetController(datasetService *service.DatasetService) IDatasetController {
	return &datasetController{
		datasetService: datasetService,
	}
}

func (c *datasetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dataset/v1")
	h.Put("", c.Upsert)
	h.Get("", c.List)
}

func (c *datasetController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 0)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.datasetService.List(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list datasets", res))
}

func (c *datasetController) Upsert(ctx *fiber.Ctx) error {
	var req dto.UpsertDatasetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	dataset := &entity.Dataset{
		Name:                  req.Name,
		Description:           req.Description,
		SchemaText:            req.SchemaText,
		Tags:                  req.Tags,
		ColumnCount:           req.ColumnCount,
		Popularity:            req.Popularity,
		TemporalGranularity:   req.TemporalGranularity,
		GeographicGranularity: req.GeographicGranularity,
		ExampleRecords:        req.ExampleRecords,
		PreviousQueries:       req.PreviousQueries,
	}

	if err := c.datasetService.Upsert(ctx.Context(), dataset); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upsert dataset", struct{}{}))
}
