package inventory

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const sessionHeader = "X-Session-Key"

var testMetrics = metrics.New()

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	svc, db := setupService(t)
	handler := NewHandler(svc, testMetrics)

	app := fiber.New()
	app.Use(authz.Identity(db, sessionHeader))
	handler.RegisterRoutes(app)

	seedUser(t, db, models.RoleStaff, "staff-session")
	seedUser(t, db, models.RoleBorrower, "borrower-session")
	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, key string) models.User {
	t.Helper()
	u := models.User{ID: "u-" + key, Name: string(role), Email: key + "@test.local", Role: role, SessionKey: key, TrustScore: 100}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, session string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRecommendationEndpointNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "GET", "/items/ghost/status-recommendation", nil, "borrower-session")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Nil(t, body["currentStatus"])
	assert.Equal(t, false, body["driftDetected"])
}

func TestRecommendationEndpoint(t *testing.T) {
	app, db := setupTestApp(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationActive)

	status, body := doJSON(t, app, "GET", "/items/"+item.ID+"/status-recommendation", nil, "borrower-session")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "AVAILABLE", body["currentStatus"])
	assert.Equal(t, "BORROWED", body["recommendedStatus"])
	assert.Equal(t, true, body["driftDetected"])
}

func TestReconcileEndpointRequiresStaff(t *testing.T) {
	app, db := setupTestApp(t)
	item := seedItem(t, db, models.ItemAvailable)

	status, _ := doJSON(t, app, "POST", "/items/"+item.ID+"/reconcile",
		map[string]any{"reservationStatus": "ACTIVE"}, "borrower-session")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestReconcileEndpoint(t *testing.T) {
	app, db := setupTestApp(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationActive)

	status, body := doJSON(t, app, "POST", "/items/"+item.ID+"/reconcile",
		map[string]any{"reservationStatus": "ACTIVE", "reason": "pickup"}, "staff-session")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "AVAILABLE", body["previousStatus"])
	assert.Equal(t, "BORROWED", body["newStatus"])
	assert.Equal(t, item.ID, body["itemId"])
}

func TestReconcileEndpointValidation(t *testing.T) {
	app, db := setupTestApp(t)
	item := seedItem(t, db, models.ItemAvailable)

	status, _ := doJSON(t, app, "POST", "/items/"+item.ID+"/reconcile",
		map[string]any{}, "staff-session")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestBulkEndpointShape(t *testing.T) {
	app, db := setupTestApp(t)
	a := seedItem(t, db, models.ItemAvailable)
	b := seedItem(t, db, models.ItemBorrowed)

	status, body := doJSON(t, app, "POST", "/items/bulk-status", map[string]any{
		"itemIds": []string{a.ID, b.ID},
		"status":  "AVAILABLE",
		"reason":  "inventory check",
	}, "staff-session")
	assert.Equal(t, fiber.StatusOK, status)

	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["requested"])
	assert.EqualValues(t, 1, summary["updated"])
	assert.EqualValues(t, 1, summary["skipped"])
	assert.EqualValues(t, 0, summary["failed"])
}

func TestBulkEndpointMissingIDs(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "POST", "/items/bulk-status", map[string]any{
		"itemIds": []string{"ghost"},
		"status":  "AVAILABLE",
	}, "staff-session")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body, "missingIds")
}

func TestDeleteEndpointConflict(t *testing.T) {
	app, db := setupTestApp(t)
	item := seedItem(t, db, models.ItemAvailable)
	seedReservation(t, db, item.ID, models.ReservationPending)

	status, _ := doJSON(t, app, "DELETE", "/items/"+item.ID, nil, "staff-session")
	assert.Equal(t, fiber.StatusConflict, status)
}
