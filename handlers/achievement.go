package handlers

import (
	"strconv"

	"game-achievement-system/services"
	"game-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAchievementRoutes(app *fiber.App, achievementService *services.AchievementService) {
	app.Get("/achievements", func(c *fiber.Ctx) error {
		achievements, err := achievementService.GetAll()
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(achievements)
	})

	app.Get("/achievements/users/:id", func(c *fiber.Ctx) error {
		userID, err := strconv.Atoi(c.Params("id"))
		if err != nil || userID <= 0 {
			return renderError(c, utils.NewValidationError("user id must be a positive integer", nil))
		}
		details, err := achievementService.GetUserAchievements(uint(userID))
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(details)
	})
}
