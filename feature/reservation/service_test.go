package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	engine := reconcile.NewEngine(db, reconcile.NewMemLocker(), zap.NewNop())
	return NewService(db, engine, zap.NewNop()), db
}

func seedItem(t *testing.T, db *gorm.DB, status models.ItemStatus) models.Item {
	t.Helper()
	item := models.Item{ID: uuid.NewString(), Name: "projector", Category: "av", Status: status}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role) models.User {
	t.Helper()
	u := models.User{ID: uuid.NewString(), Name: "tester", Email: uuid.NewString() + "@test.local", Role: role, TrustScore: 100}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func window() (time.Time, time.Time) {
	start := time.Now().Add(time.Hour)
	return start, start.Add(48 * time.Hour)
}

func request(t *testing.T, s *Service, itemID, userID string) *models.Reservation {
	t.Helper()
	start, end := window()
	res, err := s.Request(context.Background(), RequestInput{
		ItemID:    itemID,
		StartDate: start,
		EndDate:   end,
	}, userID)
	require.NoError(t, err)
	return res
}

func itemStatus(t *testing.T, db *gorm.DB, id string) models.ItemStatus {
	t.Helper()
	var item models.Item
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return item.Status
}

func TestRequestMarksItemReserved(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)

	res := request(t, s, item.ID, user.ID)

	assert.Equal(t, models.ReservationPending, res.Status)
	assert.Equal(t, models.ItemReserved, itemStatus(t, db, item.ID))
}

func TestRequestValidation(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	start, end := window()

	_, err := s.Request(context.Background(), RequestInput{ItemID: item.ID, StartDate: end, EndDate: start}, user.ID)
	assert.ErrorIs(t, err, ErrInvalidDates)

	_, err = s.Request(context.Background(), RequestInput{ItemID: "ghost", StartDate: start, EndDate: end}, user.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	retired := seedItem(t, db, models.ItemRetired)
	_, err = s.Request(context.Background(), RequestInput{ItemID: retired.ID, StartDate: start, EndDate: end}, user.ID)
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestLifecycleToCompletion(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	res := request(t, s, item.ID, user.ID)
	ctx := context.Background()

	approved, err := s.Approve(ctx, res.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationApproved, approved.Status)
	assert.Equal(t, models.ItemReserved, itemStatus(t, db, item.ID))

	active, err := s.Pickup(ctx, res.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationActive, active.Status)
	assert.Equal(t, models.ItemBorrowed, itemStatus(t, db, item.ID))

	done, err := s.Return(ctx, res.ID, staff.ID, ReturnInput{Condition: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, done.Status)
	assert.Equal(t, models.ItemAvailable, itemStatus(t, db, item.ID))

	var ret models.Return
	require.NoError(t, db.First(&ret, "reservation_id = ?", res.ID).Error)
	assert.Equal(t, "good", ret.Condition)
}

func TestRejectFreesItem(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	res := request(t, s, item.ID, user.ID)

	_, err := s.Reject(context.Background(), res.ID, staff.ID, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := s.Reject(context.Background(), res.ID, staff.ID, "item double-booked")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationRejected, rejected.Status)
	assert.Equal(t, "item double-booked", rejected.RejectionReason)
	assert.Equal(t, models.ItemAvailable, itemStatus(t, db, item.ID))

	var stored models.Reservation
	require.NoError(t, db.First(&stored, "id = ?", res.ID).Error)
	assert.Equal(t, "item double-booked", stored.RejectionReason)
}

func TestTransitionGuards(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	res := request(t, s, item.ID, user.ID)
	ctx := context.Background()

	// Pickup requires APPROVED, return requires ACTIVE.
	_, err := s.Pickup(ctx, res.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.Return(ctx, res.ID, staff.ID, ReturnInput{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Approve(ctx, "ghost", staff.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = s.Approve(ctx, res.ID, staff.ID)
	require.NoError(t, err)
	_, err = s.Approve(ctx, res.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelOwnership(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	owner := seedUser(t, db, models.RoleBorrower)
	other := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	ctx := context.Background()

	res := request(t, s, item.ID, owner.ID)
	_, err := s.Cancel(ctx, res.ID, &other)
	assert.ErrorIs(t, err, ErrNotOwner)

	cancelled, err := s.Cancel(ctx, res.ID, &owner)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)
	assert.Equal(t, models.ItemAvailable, itemStatus(t, db, item.ID))

	// Staff may cancel anyone's pending reservation.
	res2 := request(t, s, item.ID, owner.ID)
	_, err = s.Cancel(ctx, res2.ID, &staff)
	require.NoError(t, err)

	// Terminal reservations cannot be cancelled again.
	_, err = s.Cancel(ctx, res2.ID, &staff)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelActiveRefused(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	res := request(t, s, item.ID, user.ID)
	ctx := context.Background()

	_, err := s.Approve(ctx, res.ID, staff.ID)
	require.NoError(t, err)
	_, err = s.Pickup(ctx, res.ID, staff.ID)
	require.NoError(t, err)

	_, err = s.Cancel(ctx, res.ID, &staff)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListFilters(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	other := seedItem(t, db, models.ItemAvailable)
	alice := seedUser(t, db, models.RoleBorrower)
	bob := seedUser(t, db, models.RoleBorrower)
	ctx := context.Background()

	request(t, s, item.ID, alice.ID)
	request(t, s, other.ID, bob.ID)

	mine, err := s.List(ctx, ListFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	byItem, err := s.List(ctx, ListFilter{ItemID: other.ID})
	require.NoError(t, err)
	assert.Len(t, byItem, 1)
	assert.Equal(t, bob.ID, byItem[0].UserID)

	all, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTransitionsAudit(t *testing.T) {
	s, db := setupService(t)
	item := seedItem(t, db, models.ItemAvailable)
	user := seedUser(t, db, models.RoleBorrower)
	staff := seedUser(t, db, models.RoleStaff)
	res := request(t, s, item.ID, user.ID)

	_, err := s.Approve(context.Background(), res.ID, staff.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", "reservation", res.ID).
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
