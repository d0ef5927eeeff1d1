package reconcile

import "github.com/Candra0x6/Inventy-sub003/core/models"

// DeriveStatus projects an item status from its reservation set. Priority
// order, first match wins. Terminal reservations never count; callers may
// pass them, they are ignored here.
func DeriveStatus(current models.ItemStatus, reservations []models.Reservation) models.ItemStatus {
	var hasActive, hasHold bool
	for _, r := range reservations {
		switch r.Status {
		case models.ReservationActive:
			hasActive = true
		case models.ReservationApproved, models.ReservationPending:
			hasHold = true
		}
	}

	if hasActive {
		return models.ItemBorrowed
	}
	if hasHold {
		return models.ItemReserved
	}
	// Explicit states always win over derived AVAILABLE.
	if current == models.ItemMaintenance || current == models.ItemRetired {
		return current
	}
	return models.ItemAvailable
}
