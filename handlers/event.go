package handlers

import (
	"encoding/json"

	"game-achievement-system/models"
	"game-achievement-system/services"
	"game-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
)

type createEventRequest struct {
	UserID    int             `json:"user_id"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details,omitempty"`
}

func SetupEventRoutes(app *fiber.App, eventService *services.EventService) {
	app.Post("/event", func(c *fiber.Ctx) error {
		var req createEventRequest
		if err := c.BodyParser(&req); err != nil {
			return renderError(c, utils.NewValidationError("invalid request body", nil))
		}

		event, err := eventService.Submit(c.Context(), req.UserID, models.EventType(req.EventType), req.Details)
		if err != nil {
			return renderError(c, err)
		}

		return c.JSON(fiber.Map{
			"id":         event.ID,
			"user_id":    event.UserID,
			"event_type": event.EventType,
			"details":    event.Details,
			"created_at": event.CreatedAt,
			"message":    "event accepted for processing",
		})
	})
}
