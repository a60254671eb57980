package handlers

import (
	"strconv"

	"game-achievement-system/services"
	"game-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	app.Post("/users", func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := c.BodyParser(&req); err != nil {
			return renderError(c, utils.NewValidationError("invalid request body", nil))
		}
		user, err := userService.Create(req.Username, req.Email)
		if err != nil {
			return renderError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	app.Get("/users", func(c *fiber.Ctx) error {
		users, err := userService.GetAll()
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(users)
	})

	app.Get("/users/:id", func(c *fiber.Ctx) error {
		userID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return renderError(c, utils.NewValidationError("user id must be an integer", nil))
		}
		user, err := userService.GetByID(userID)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(user)
	})

	app.Get("/users/:id/score", func(c *fiber.Ctx) error {
		userID, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return renderError(c, utils.NewValidationError("user id must be an integer", nil))
		}
		score, err := userService.GetScore(userID)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(fiber.Map{
			"user_id":          score.UserID,
			"login_count":      score.LoginCount,
			"levels_completed": score.LevelsCompleted,
			"secrets_found":    score.SecretsFound,
			"updated_at":       score.UpdatedAt,
		})
	})
}
