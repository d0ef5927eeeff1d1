package reporting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// trustBuckets are the trust score distribution boundaries, labelled by
// their inclusive upper bound.
var trustBuckets = []struct {
	Label string
	Upper float64
}{
	{"0-25", 25},
	{"26-50", 50},
	{"51-75", 75},
	{"76-100", 100},
}

// Report is one aggregate snapshot of the system.
type Report struct {
	ItemsByStatus        map[models.ItemStatus]int64        `json:"itemsByStatus"`
	ItemsByCategory      map[string]int64                   `json:"itemsByCategory"`
	ReservationsByStatus map[models.ReservationStatus]int64 `json:"reservationsByStatus"`
	OverdueCount         int64                              `json:"overdueCount"`
	TrustDistribution    map[string]int64                   `json:"trustDistribution"`
	GeneratedAt          time.Time                          `json:"generatedAt"`
}

// Service builds and caches reports.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	ttl    time.Duration

	mu     sync.RWMutex
	cached *Report
	sf     singleflight.Group
}

// NewService creates a reporting service. ttl of zero disables caching.
func NewService(db *gorm.DB, logger *zap.Logger, ttl time.Duration) *Service {
	return &Service{db: db, logger: logger, ttl: ttl}
}

// Summary returns the current report, rebuilding it when the cached copy has
// expired. Concurrent callers share one rebuild.
func (s *Service) Summary(ctx context.Context) (*Report, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()

	if cached != nil && s.ttl > 0 && time.Since(cached.GeneratedAt) <= s.ttl {
		return cached, nil
	}

	result, err, _ := s.sf.Do("summary", func() (interface{}, error) {
		s.mu.RLock()
		cached := s.cached
		s.mu.RUnlock()
		if cached != nil && s.ttl > 0 && time.Since(cached.GeneratedAt) <= s.ttl {
			return cached, nil
		}

		report, err := s.build(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cached = report
		s.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Report), nil
}

// Invalidate drops the cached report, forcing the next Summary to rebuild.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

type statusCount[T ~string] struct {
	Label T
	Count int64
}

// build runs the five aggregate queries concurrently and assembles the
// report from their results.
func (s *Service) build(ctx context.Context) (*Report, error) {
	report := &Report{
		ItemsByStatus:        make(map[models.ItemStatus]int64),
		ItemsByCategory:      make(map[string]int64),
		ReservationsByStatus: make(map[models.ReservationStatus]int64),
		TrustDistribution:    make(map[string]int64),
		GeneratedAt:          time.Now().UTC(),
	}

	var (
		wg                                                 sync.WaitGroup
		itemsErr, categoryErr, resErr, overdueErr, userErr error
	)
	wg.Add(5)

	go func() {
		defer wg.Done()
		var rows []statusCount[models.ItemStatus]
		itemsErr = s.db.WithContext(ctx).Model(&models.Item{}).
			Select("status AS label, COUNT(*) AS count").
			Group("status").
			Scan(&rows).Error
		for _, r := range rows {
			report.ItemsByStatus[r.Label] = r.Count
		}
	}()

	go func() {
		defer wg.Done()
		var rows []statusCount[string]
		categoryErr = s.db.WithContext(ctx).Model(&models.Item{}).
			Select("category AS label, COUNT(*) AS count").
			Group("category").
			Scan(&rows).Error
		for _, r := range rows {
			report.ItemsByCategory[r.Label] = r.Count
		}
	}()

	go func() {
		defer wg.Done()
		var rows []statusCount[models.ReservationStatus]
		resErr = s.db.WithContext(ctx).Model(&models.Reservation{}).
			Select("status AS label, COUNT(*) AS count").
			Group("status").
			Scan(&rows).Error
		for _, r := range rows {
			report.ReservationsByStatus[r.Label] = r.Count
		}
	}()

	go func() {
		defer wg.Done()
		overdueErr = s.db.WithContext(ctx).Model(&models.Reservation{}).
			Where("status = ? AND end_date < ?", models.ReservationActive, time.Now()).
			Count(&report.OverdueCount).Error
	}()

	go func() {
		defer wg.Done()
		lower := -1.0
		for _, b := range trustBuckets {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("trust_score > ? AND trust_score <= ?", lower, b.Upper).
				Count(&count).Error; err != nil {
				userErr = err
				return
			}
			report.TrustDistribution[b.Label] = count
			lower = b.Upper
		}
	}()

	wg.Wait()
	for _, err := range []error{itemsErr, categoryErr, resErr, overdueErr, userErr} {
		if err != nil {
			return nil, fmt.Errorf("failed to build report: %w", err)
		}
	}
	return report, nil
}
