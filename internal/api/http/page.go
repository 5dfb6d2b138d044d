package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search/internal/search"
	"github.com/i474232898/weather-search/internal/view"
)

//go:embed templates/index.html
var indexHTML string

// Backgrounds come from a fixed gradient table, so they are trusted as CSS.
var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(indexHTML))

// registerPage serves the widget and its plain-form actions. Every action
// redirects back to the page; failures show up in the rendered state.
func registerPage(app *fiber.App, ctrl *search.Controller, model *view.Model) {
	app.Get("/", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, model.State()); err != nil {
			return err
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	app.Post("/search", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ctrl.Search(c.UserContext(), req.City); err != nil {
			log.Printf("DEBUG: page search for %q: %v", req.City, err)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	app.Post("/history/select", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := model.Select(c.UserContext(), req.City); err != nil {
			log.Printf("DEBUG: page select for %q: %v", req.City, err)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	app.Post("/history/clear", func(c *fiber.Ctx) error {
		ctrl.Clear(c.UserContext())
		return c.Redirect("/", fiber.StatusSeeOther)
	})
}
