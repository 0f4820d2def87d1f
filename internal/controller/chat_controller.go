package controller

import (
	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/serverutils"
	"rag-notes-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SaveMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.SendChat)
	r.Get("/chat/history", c.GetHistory)
	r.Post("/chat/message", c.SaveMessage)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.UserContext(), serverutils.SessionId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetHistory(ctx.UserContext(), serverutils.SessionId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) SaveMessage(ctx *fiber.Ctx) error {
	var req dto.SaveChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SaveMessage(ctx.UserContext(), serverutils.SessionId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
