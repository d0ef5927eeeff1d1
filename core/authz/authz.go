package authz

import (
	"errors"

	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	// ErrUnauthorized means no valid session accompanied the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller's role is insufficient for the operation.
	ErrForbidden = errors.New("forbidden")
)

const actorKey = "actor"

// Identity returns a middleware that resolves the session key header to a
// user and stores it in locals. Requests without a resolvable user are
// rejected before any handler runs.
func Identity(db *gorm.DB, header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(header)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrUnauthorized.Error()})
		}

		var user models.User
		if err := db.WithContext(c.Context()).First(&user, "session_key = ?", key).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session lookup failed"})
		}

		c.Locals(actorKey, &user)
		return c.Next()
	}
}

// RequireRole returns a middleware that rejects callers whose role is not in
// the allowed set. It must run after Identity.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Actor(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrUnauthorized.Error()})
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrForbidden.Error()})
	}
}

// Actor returns the authenticated user stored by Identity, or nil.
func Actor(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(actorKey).(*models.User)
	return u
}
