package service

import (
	"context"
	"math"
	"sort"
	"sync"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/remote"
)

// ReservationRemote is the part of the remote client that reports
// reservation figures.
type ReservationRemote interface {
	RecentReservations(ctx context.Context, token string) ([]entities.RecentReservation, error)
	ActiveReservationCount(ctx context.Context, token string) (int64, error)
	RevenueToday(ctx context.Context, token string) (float64, error)
	RevenueMonthly(ctx context.Context, token string) (float64, error)
}

// DashboardService builds the owner's overview. Every figure is fetched on
// its own; one that fails is reported as zero.
type DashboardService struct {
	Parkings *ParkingService
	Remote   ReservationRemote
	Retrier  *remote.Retrier
}

func NewDashboardService(parkings *ParkingService, client ReservationRemote, retrier *remote.Retrier) *DashboardService {
	return &DashboardService{Parkings: parkings, Remote: client, Retrier: retrier}
}

// Stats collects the dashboard figures concurrently. Only a rejected session
// token is returned as an error.
func (s *DashboardService) Stats(ctx context.Context, token string) (*entities.DashboardStats, error) {
	stats := &entities.DashboardStats{
		RecentReservations: []entities.RecentReservation{},
		ParkingStats:       []entities.ParkingStats{},
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		authErr  error
		parkings []db.ParkingConfig
	)
	fetch := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn(ctx)
			if err == nil {
				return
			}
			logger.Warn("dashboard figure unavailable", "figure", name, "error", err)
			mu.Lock()
			defer mu.Unlock()
			stats.Unavailable = append(stats.Unavailable, name)
			if apperrors.IsAuth(err) && authErr == nil {
				authErr = err
			}
		}()
	}

	fetch("parkings", func(ctx context.Context) error {
		items, err := s.Parkings.ListOwnerParkings(ctx, token)
		parkings = items
		return err
	})
	fetch("recentReservations", func(ctx context.Context) error {
		items, err := remote.Retry(ctx, s.Retrier, "recent_reservations", func(ctx context.Context) ([]entities.RecentReservation, error) {
			return s.Remote.RecentReservations(ctx, token)
		})
		if err == nil && items != nil {
			stats.RecentReservations = items
		}
		return err
	})
	fetch("activeReservations", func(ctx context.Context) error {
		n, err := remote.Retry(ctx, s.Retrier, "active_reservation_count", func(ctx context.Context) (int64, error) {
			return s.Remote.ActiveReservationCount(ctx, token)
		})
		stats.ActiveReservations = n
		return err
	})
	fetch("todayRevenue", func(ctx context.Context) error {
		v, err := remote.Retry(ctx, s.Retrier, "revenue_today", func(ctx context.Context) (float64, error) {
			return s.Remote.RevenueToday(ctx, token)
		})
		stats.TodayRevenue = v
		return err
	})
	fetch("monthlyRevenue", func(ctx context.Context) error {
		v, err := remote.Retry(ctx, s.Retrier, "revenue_monthly", func(ctx context.Context) (float64, error) {
			return s.Remote.RevenueMonthly(ctx, token)
		})
		stats.MonthlyRevenue = v
		return err
	})
	wg.Wait()

	if authErr != nil {
		return nil, authErr
	}
	sort.Strings(stats.Unavailable)

	stats.TotalParkings = len(parkings)
	for _, p := range parkings {
		stats.TotalSpaces += p.TotalSpaces
		stats.AvailableSpaces += p.AvailableSpaces
		stats.ParkingStats = append(stats.ParkingStats, parkingStats(p))
	}
	return stats, nil
}

// parkingStats computes the occupancy percentage, rounded to two decimals.
func parkingStats(p db.ParkingConfig) entities.ParkingStats {
	ps := entities.ParkingStats{
		ParkingID:       p.ID,
		ParkingName:     p.Name,
		TotalSpaces:     p.TotalSpaces,
		AvailableSpaces: p.AvailableSpaces,
	}
	if p.TotalSpaces > 0 {
		rate := float64(p.TotalSpaces-p.AvailableSpaces) / float64(p.TotalSpaces) * 100
		ps.OccupancyRate = math.Round(rate*100) / 100
	}
	return ps
}
