package controller

import (
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/pkg/serverutils"
	"planner-notebook-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IShareController interface {
	RegisterRoutes(r fiber.Router)
	ShareFolder(ctx *fiber.Ctx) error
	ShareNote(ctx *fiber.Ctx) error
	UnshareFolder(ctx *fiber.Ctx) error
	UnshareNote(ctx *fiber.Ctx) error
}

type shareController struct {
	shareService service.IShareService
}

func NewShareController(shareService service.IShareService) IShareController {
	return &shareController{
		shareService: shareService,
	}
}

func (c *shareController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/share/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("folder", c.ShareFolder)
	h.Post("note", c.ShareNote)
	h.Delete("folder", c.UnshareFolder)
	h.Delete("note", c.UnshareNote)
}

func (c *shareController) ShareFolder(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ShareFolderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.shareService.ShareFolder(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success share folder", res))
}

func (c *shareController) ShareNote(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ShareNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.shareService.ShareNote(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success share note", res))
}

func (c *shareController) UnshareFolder(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.UnshareFolderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.shareService.UnshareFolder(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success unshare folder", nil))
}

func (c *shareController) UnshareNote(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.UnshareNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.shareService.UnshareNote(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success unshare note", nil))
}
