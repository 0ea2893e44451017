package controller

import (
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/serverutils"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	Add(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	BulkDelete(ctx *fiber.Ctx) error
	Recent(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type messageController struct {
	messageService service.IMessageService
}

func NewMessageController(messageService service.IMessageService) IMessageController {
	return &messageController{
		messageService: messageService,
	}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("sessions/:id/messages", c.Add)
	h.Get("sessions/:id/messages", c.List)
	h.Delete("sessions/:id/messages", c.BulkDelete)
	h.Put("messages/:id", c.Update)
	h.Delete("messages/:id", c.Delete)
	h.Get("messages/recent", c.Recent)
	h.Get("messages/search", c.Search)
	h.Get("messages/stats", c.Stats)
}

func (c *messageController) Add(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	var req dto.AddMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.messageService.Add(ctx.Context(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add message", res))
}

func (c *messageController) List(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	req := dto.ListMessagesRequest{
		Page:      ctx.QueryInt("page", 1),
		Limit:     ctx.QueryInt("limit", 50),
		SortOrder: ctx.Query("sortOrder"),
		Type:      ctx.Query("type"),
	}

	res, err := c.messageService.ListBySession(ctx.Context(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *messageController) Update(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid message ID"))
	}

	var req dto.UpdateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.messageService.Update(ctx.Context(), id, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update message", res))
}

func (c *messageController) Delete(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid message ID"))
	}

	deleted, err := c.messageService.Delete(ctx.Context(), id, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete message", fiber.Map{"deleted": deleted}))
}

func (c *messageController) BulkDelete(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	var req dto.BulkDeleteMessagesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.messageService.BulkDelete(ctx.Context(), sessionId, userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success bulk delete messages", res))
}

func (c *messageController) Recent(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	limit := ctx.QueryInt("limit", 20)

	res, err := c.messageService.Recent(ctx.Context(), userId, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success recent messages", res))
}

func (c *messageController) Search(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	req := dto.SearchMessagesRequest{
		Search:    ctx.Query("search"),
		Page:      ctx.QueryInt("page", 1),
		Limit:     ctx.QueryInt("limit", 20),
		SortOrder: ctx.Query("sortOrder"),
	}

	res, err := c.messageService.Search(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search messages", res))
}

func (c *messageController) Stats(ctx *fiber.Ctx) error {
	userId := callerId(ctx)

	res, err := c.messageService.Stats(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success message stats", res))
}
