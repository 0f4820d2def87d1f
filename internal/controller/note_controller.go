package controller

import (
	"strconv"
	"strings"

	"rag-notes-be/internal/constant"
	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/serverutils"
	"rag-notes-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	MethodOverride(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
}

func NewNoteController(noteService service.INoteService) INoteController {
	return &noteController{
		noteService: noteService,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	r.Get("/notes.json", c.List)
	r.Post("/notes", c.Create)
	r.Delete("/notes/:id", c.Delete)
	// HTML forms can only POST
	r.Post("/notes/:id", c.MethodOverride)
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	res, err := c.noteService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return apperror.Validation(constant.ErrInvalidNoteId)
	}

	if err := c.noteService.Delete(ctx.UserContext(), uint(id)); err != nil {
		return err
	}
	return ctx.Redirect("/notes", fiber.StatusFound)
}

func (c *noteController) MethodOverride(ctx *fiber.Ctx) error {
	method := ctx.Get("X-HTTP-Method-Override")
	if method == "" {
		method = ctx.FormValue("_method")
	}
	if !strings.EqualFold(method, fiber.MethodDelete) {
		return fiber.ErrMethodNotAllowed
	}
	return c.Delete(ctx)
}
