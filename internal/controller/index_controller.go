package controller

import (
	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/serverutils"
	"book-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIndexController interface {
	RegisterRoutes(r fiber.Router)
	SubmitDocument(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type indexController struct {
	ingestService service.IIngestService
}

func NewIndexController(ingestService service.IIngestService) IIndexController {
	return &indexController{
		ingestService: ingestService,
	}
}

func (c *indexController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api/v1/index")
	h.Post("documents", c.SubmitDocument)
	h.Get("stats", c.Stats)
}

func (c *indexController) SubmitDocument(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.SubmitDocument(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for indexing", res))
}

func (c *indexController) Stats(ctx *fiber.Ctx) error {
	res, err := c.ingestService.Stats(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Index stats", res))
}
