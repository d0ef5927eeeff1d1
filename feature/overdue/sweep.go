package overdue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/audit"
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notification types, escalating with lateness.
const (
	NotificationReminder    = "REMINDER"
	NotificationWarning     = "WARNING"
	NotificationFinalNotice = "FINAL_NOTICE"
)

// notificationSchedule maps exact days overdue to the notification to send.
// Days not listed get no notification; escalation pauses between steps.
var notificationSchedule = map[int]string{
	1:  NotificationReminder,
	2:  NotificationReminder,
	5:  NotificationWarning,
	7:  NotificationWarning,
	10: NotificationFinalNotice,
	14: NotificationFinalNotice,
}

const (
	// criticalThresholdDays is the lateness beyond which penalties start.
	criticalThresholdDays = 14
	// penaltyPerDay is the trust score cost per day overdue.
	penaltyPerDay = 0.5
	// penaltyCap bounds a single sweep's penalty.
	penaltyCap = 15.0
)

// Notifier delivers overdue notifications to users.
type Notifier interface {
	Send(ctx context.Context, userID, notificationType string, reservation models.Reservation, daysOverdue int) error
}

// LogNotifier writes notifications to the application log. It stands in
// until a mail or push channel is wired up.
type LogNotifier struct {
	Logger *zap.Logger
}

// Send logs the notification.
func (n *LogNotifier) Send(_ context.Context, userID, notificationType string, reservation models.Reservation, daysOverdue int) error {
	n.Logger.Info("overdue notification",
		zap.String("user_id", userID),
		zap.String("type", notificationType),
		zap.String("reservation_id", reservation.ID),
		zap.Int("days_overdue", daysOverdue),
	)
	return nil
}

// Severity is the day-based breakdown of the overdue population.
type Severity struct {
	Low    int `json:"low"`    // 1 to 3 days
	Medium int `json:"medium"` // 4 to 7 days
	High   int `json:"high"`   // more than 7 days
}

// Summary is the result of one sweep run.
type Summary struct {
	TotalOverdue      int      `json:"totalOverdue"`
	NotificationsSent int      `json:"notificationsSent"`
	PenaltiesApplied  int      `json:"penaltiesApplied"`
	Severity          Severity `json:"severity"`
}

// Sweeper walks the overdue reservations and applies the escalation policy.
type Sweeper struct {
	db       *gorm.DB
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	window   time.Duration
}

// NewSweeper creates a sweeper. window is the idempotency window guarding
// notifications and penalties, normally 24 hours.
func NewSweeper(db *gorm.DB, notifier Notifier, m *metrics.Metrics, logger *zap.Logger, window time.Duration) *Sweeper {
	return &Sweeper{db: db, notifier: notifier, metrics: m, logger: logger, window: window}
}

// DaysOverdue computes whole days late, rounding any partial day up. A
// reservation one minute past its end date is one day overdue.
func DaysOverdue(endDate, now time.Time) int {
	late := now.Sub(endDate)
	if late <= 0 {
		return 0
	}
	return int(math.Ceil(late.Hours() / 24))
}

// overdueQuery selects the reservations an active sweep considers: ACTIVE,
// past their end date, and without a recorded return. The return flow flips
// the status to COMPLETED in the same transaction, so the last condition only
// matters for rows written outside the app.
func (s *Sweeper) overdueQuery(ctx context.Context, now time.Time) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND end_date < ?", models.ReservationActive, now).
		Where("NOT EXISTS (SELECT 1 FROM returns WHERE returns.reservation_id = reservations.id)")
}

// Entry pairs an overdue reservation with its computed lateness.
type Entry struct {
	Reservation models.Reservation `json:"reservation"`
	DaysOverdue int                `json:"daysOverdue"`
	Critical    bool               `json:"critical"`
}

// Snapshot lists the overdue reservations as of now, without side effects.
func (s *Sweeper) Snapshot(ctx context.Context, now time.Time) ([]Entry, error) {
	var overdue []models.Reservation
	err := s.overdueQuery(ctx, now).
		Order("end_date ASC").
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue reservations: %w", err)
	}

	entries := make([]Entry, 0, len(overdue))
	for _, res := range overdue {
		days := DaysOverdue(res.EndDate, now)
		entries = append(entries, Entry{
			Reservation: res,
			DaysOverdue: days,
			Critical:    days > criticalThresholdDays,
		})
	}
	return entries, nil
}

// Run executes one sweep as of now. Each reservation is processed in its own
// transaction so one failure does not poison the rest of the run.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (*Summary, error) {
	var overdue []models.Reservation
	err := s.overdueQuery(ctx, now).Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue reservations: %w", err)
	}

	summary := &Summary{TotalOverdue: len(overdue)}
	for _, res := range overdue {
		days := DaysOverdue(res.EndDate, now)
		switch {
		case days <= 3:
			summary.Severity.Low++
		case days <= 7:
			summary.Severity.Medium++
		default:
			summary.Severity.High++
		}

		sent, err := s.notify(ctx, res, days, now)
		if err != nil {
			s.logger.Error("overdue notification failed",
				zap.String("reservation_id", res.ID), zap.Error(err))
		} else if sent {
			summary.NotificationsSent++
		}

		if days > criticalThresholdDays {
			applied, err := s.penalize(ctx, res, days, now)
			if err != nil {
				s.logger.Error("overdue penalty failed",
					zap.String("reservation_id", res.ID), zap.Error(err))
			} else if applied {
				summary.PenaltiesApplied++
			}
		}
	}

	s.metrics.SweepsTotal.Inc()
	s.logger.Info("overdue sweep finished",
		zap.Int("total_overdue", summary.TotalOverdue),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("penalties_applied", summary.PenaltiesApplied),
	)
	return summary, nil
}

// notify sends the scheduled notification for the reservation's lateness, if
// any, guarded by the idempotency window. Returns whether one went out.
func (s *Sweeper) notify(ctx context.Context, res models.Reservation, days int, now time.Time) (bool, error) {
	notificationType, scheduled := notificationSchedule[days]
	if !scheduled {
		return false, nil
	}

	done, err := audit.WithinWindow(s.db.WithContext(ctx), "reservation", res.ID, audit.ActionOverdueNotification, s.window, now)
	if err != nil || done {
		return false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := audit.Record(tx, audit.Entry{
			Action:     audit.ActionOverdueNotification,
			EntityType: "reservation",
			EntityID:   res.ID,
			UserID:     res.UserID,
			Changes: map[string]any{
				"notificationType": notificationType,
				"daysOverdue":      days,
			},
		}); err != nil {
			return err
		}
		return audit.Touch(tx, "reservation", res.ID, audit.ActionOverdueNotification, now)
	})
	if err != nil {
		return false, err
	}

	if err := s.notifier.Send(ctx, res.UserID, notificationType, res, days); err != nil {
		// The marker already committed; the next window retries delivery.
		return false, err
	}
	s.metrics.NotificationsTotal.WithLabelValues(notificationType).Inc()
	return true, nil
}

// penalize docks the borrower's trust score for a critically late return.
// The window marker is keyed on the reservation, like the notification
// marker, so each critical reservation costs its own penalty per window.
func (s *Sweeper) penalize(ctx context.Context, res models.Reservation, days int, now time.Time) (bool, error) {
	done, err := audit.WithinWindow(s.db.WithContext(ctx), "reservation", res.ID, audit.ActionCriticalPenalty, s.window, now)
	if err != nil || done {
		return false, err
	}

	penalty := math.Min(float64(days)*penaltyPerDay, penaltyCap)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", res.UserID).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		newScore := math.Max(user.TrustScore-penalty, 0)
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{"trust_score": newScore, "updated_at": now.UTC()}).Error; err != nil {
			return fmt.Errorf("failed to update trust score: %w", err)
		}

		if err := audit.Record(tx, audit.Entry{
			Action:     audit.ActionCriticalPenalty,
			EntityType: "user",
			EntityID:   user.ID,
			UserID:     user.ID,
			Changes: map[string]any{
				"reservationId": res.ID,
				"daysOverdue":   days,
				"previousScore": user.TrustScore,
				"penalty":       penalty,
				"newScore":      newScore,
			},
		}); err != nil {
			return err
		}
		return audit.Touch(tx, "reservation", res.ID, audit.ActionCriticalPenalty, now)
	})
	if err != nil {
		return false, err
	}

	s.metrics.PenaltiesTotal.Inc()
	return true, nil
}
