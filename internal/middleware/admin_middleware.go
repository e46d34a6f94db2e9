package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/collabnest/backend/internal/models"
)

// AdminOnly gates admin routes. It runs after Auth, which has already
// revalidated the role against the identity store.
func AdminOnly(c *fiber.Ctx) error {
	role, _ := c.Locals(LocalRole).(string)
	if role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admins only"})
	}
	return c.Next()
}
