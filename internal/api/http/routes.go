package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search/internal/search"
	"github.com/i474232898/weather-search/internal/view"
)

var validate = validator.New()

// RegisterRoutes wires the widget page and the JSON API into the Fiber app.
func RegisterRoutes(app *fiber.App, ctrl *search.Controller, model *view.Model) {
	registerPage(app, ctrl, model)

	v1 := app.Group("/api/v1")

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(model.State())
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := ctrl.Search(c.UserContext(), req.City); err != nil {
			return searchError(err)
		}
		return c.JSON(model.State())
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"history": ctrl.History()})
	})

	v1.Delete("/history", func(c *fiber.Ctx) error {
		ctrl.Clear(c.UserContext())
		return c.JSON(fiber.Map{"history": ctrl.History()})
	})

	v1.Post("/history/select", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := model.Select(c.UserContext(), req.City); err != nil {
			return searchError(err)
		}
		return c.JSON(model.State())
	})
}

// cityRequest is the body of search and select requests (JSON or form).
type cityRequest struct {
	City string `json:"city" form:"city" validate:"max=100"`
}

func parseCityRequest(c *fiber.Ctx) (cityRequest, error) {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errors.New("body must carry a city field")
	}
	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// searchError maps controller errors onto HTTP statuses.
func searchError(err error) error {
	if errors.Is(err, search.ErrNotInHistory) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if errors.Is(err, search.ErrSuperseded) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	var serr *search.Error
	if errors.As(err, &serr) {
		switch serr.Kind {
		case search.KindCityNotFound:
			return fiber.NewError(fiber.StatusNotFound, serr.Message)
		case search.KindNetworkFailure:
			return fiber.NewError(fiber.StatusBadGateway, serr.Message)
		}
	}
	return fiber.NewError(fiber.StatusInternalServerError, "search failed")
}
