package authz

import (
	"net/http/httptest"
	"testing"

	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const sessionHeader = "X-Session-Key"

func setupApp(t *testing.T, roles ...models.Role) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	app := fiber.New()
	app.Use(Identity(db, sessionHeader))
	if len(roles) > 0 {
		app.Use(RequireRole(roles...))
	}
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"actor": Actor(c).ID})
	})
	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, key string) models.User {
	t.Helper()
	u := models.User{ID: "u-" + key, Name: "tester", Email: key + "@test.local", Role: role, SessionKey: key, TrustScore: 100}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestIdentityRejectsMissingSession(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIdentityRejectsUnknownSession(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(sessionHeader, "nope")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleMatrix(t *testing.T) {
	tests := []struct {
		role   models.Role
		expect int
	}{
		{models.RoleSuperAdmin, fiber.StatusOK},
		{models.RoleManager, fiber.StatusOK},
		{models.RoleStaff, fiber.StatusOK},
		{models.RoleBorrower, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			app, db := setupApp(t, models.StaffTier...)
			seedUser(t, db, tt.role, "sess-"+string(tt.role))

			req := httptest.NewRequest("GET", "/ping", nil)
			req.Header.Set(sessionHeader, "sess-"+string(tt.role))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, resp.StatusCode)
		})
	}
}

func TestAuthenticatedWithoutRoleGate(t *testing.T) {
	app, db := setupApp(t)
	seedUser(t, db, models.RoleBorrower, "sess-b")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(sessionHeader, "sess-b")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
