package tracking

import (
	"errors"
	"strconv"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
	"github.com/RENEILPH10/Step-Counter/internal/storage"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/session", func(c *fiber.Ctx) error {
		return c.JSON(svc.Current())
	})

	r.Post("/session/start", func(c *fiber.Ctx) error {
		return c.JSON(svc.Start())
	})

	r.Post("/session/stop", func(c *fiber.Ctx) error {
		return c.JSON(svc.Stop())
	})

	r.Post("/session/reset", func(c *fiber.Ctx) error {
		return c.JSON(svc.Reset())
	})

	r.Post("/session/samples", func(c *fiber.Ctx) error {
		var req SampleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat == nil || req.Lon == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon required")
		}
		snap, err := svc.Ingest(geo.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(snap)
	})

	r.Post("/session/save", func(c *fiber.Ctx) error {
		rec, err := svc.Save(c.Context())
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	r.Get("/records", func(c *fiber.Ctx) error {
		limit := -1
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
			}
			limit = n
		}
		records, err := svc.History(c.Context(), limit)
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(records)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrNotRunning):
		return fiber.StatusConflict
	case errors.Is(err, storage.ErrInvalidLimit):
		return fiber.StatusBadRequest
	case errors.Is(err, storage.ErrStorage):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
