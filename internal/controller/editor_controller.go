package controller

import (
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/pkg/serverutils"
	"planner-notebook-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEditorController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Change(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	Recover(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type editorController struct {
	editorService service.IEditorService
}

func NewEditorController(editorService service.IEditorService) IEditorController {
	return &editorController{
		editorService: editorService,
	}
}

func (c *editorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/editor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("open", c.Open)
	h.Post("change", c.Change)
	h.Post("close", c.Close)
	h.Post("recover", c.Recover)
	h.Get("status", c.Status)
}

func (c *editorController) Open(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.OpenEditorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.editorService.Open(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success open editor", res))
}

func (c *editorController) Change(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.EditorChangeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.editorService.Change(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply change", res))
}

func (c *editorController) Close(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.editorService.Close(ctx.Context(), userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success close editor", nil))
}

func (c *editorController) Recover(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.editorService.Recover(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success recover draft", res))
}

func (c *editorController) Status(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.editorService.Status(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Editor status", res))
}
