package handlers

import (
	"game-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
)

// renderError maps an application error onto the {detail, error_code,
// context} wire format.
func renderError(c *fiber.Ctx, err error) error {
	if appErr, ok := utils.AsAppError(err); ok {
		body := fiber.Map{
			"detail":     appErr.Detail,
			"error_code": appErr.Code,
		}
		if appErr.Context != nil {
			body["context"] = appErr.Context
		}
		return c.Status(appErr.Status).JSON(body)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail":     "internal server error",
		"error_code": utils.CodeApplicationError,
	})
}
