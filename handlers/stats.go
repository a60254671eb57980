package handlers

import (
	"strconv"

	"game-achievement-system/services"
	"game-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupStatsRoutes(app *fiber.App, statsService *services.StatsService) {
	app.Get("/stats/:id", func(c *fiber.Ctx) error {
		userID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return renderError(c, utils.NewValidationError("user id must be an integer", nil))
		}

		// The payload is pre-serialized so a snapshot hit is returned
		// byte-for-byte as it was cached.
		payload, err := statsService.GetUserStats(c.Context(), userID)
		if err != nil {
			return renderError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(payload)
	})
}
