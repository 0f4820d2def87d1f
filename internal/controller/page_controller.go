package controller

import (
	"io/fs"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router)
}

type pageController struct {
	pages fs.FS
}

func NewPageController(pages fs.FS) IPageController {
	return &pageController{pages: pages}
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	r.Get("/notes", c.serve("notes.html"))
	r.Get("/ui", c.serve("ui.html"))
	r.Get("/write", c.serve("write.html"))
}

func (c *pageController) serve(name string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		body, err := fs.ReadFile(c.pages, name)
		if err != nil {
			return err
		}
		ctx.Type("html", "utf-8")
		return ctx.Send(body)
	}
}
