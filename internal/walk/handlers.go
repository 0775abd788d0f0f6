package walk

import (
	"errors"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/storage"

	"github.com/gofiber/fiber/v2"
)

func statusFor(err error) int {
	var te *engine.TransitionError
	switch {
	case errors.Is(err, ErrWalkNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &te), errors.Is(err, engine.ErrNoActivePosition):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		info, err := m.StartWalk(req.UserID)
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(info)
	})

	r.Post("/:id/positions", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			engine.Position
			SensorError string `json:"sensor_error,omitempty"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if req.SensorError != "" {
			delivered, err := m.ReportSensorError(c.Params("id"), req.SensorError)
			if err != nil {
				return fiber.NewError(statusFor(err), err.Error())
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"delivered": delivered})
		}

		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
		}
		if req.RecordedAt.IsZero() {
			req.RecordedAt = time.Now()
		}
		delivered, err := m.AddSample(c.Params("id"), req.Position)
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"delivered": delivered})
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		info, err := m.PauseWalk(c.Params("id"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(info)
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		info, err := m.ResumeWalk(c.Params("id"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(info)
	})

	r.Post("/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			ImageRef string `json:"image_ref"`
			Caption  string `json:"caption"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.ImageRef == "" {
			return fiber.NewError(fiber.StatusBadRequest, "image_ref required")
		}
		photo, err := m.CapturePhoto(c.Params("id"), req.ImageRef, req.Caption)
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Post("/:id/end", authMiddleware, func(c *fiber.Ctx) error {
		res, err := m.EndWalk(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(res)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		walks, err := m.History(c.Context(), userID, c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		if walks == nil {
			walks = []storage.WalkSummary{}
		}
		return c.JSON(walks)
	})

	r.Get("/:id/metrics", func(c *fiber.Ctx) error {
		snap, err := m.Metrics(c.Params("id"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(snap)
	})

	r.Get("/:id/state", func(c *fiber.Ctx) error {
		state, err := m.State(c.Params("id"))
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(fiber.Map{"state": state})
	})
}
