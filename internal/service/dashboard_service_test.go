package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/remote"
)

func newDashboardService(fb *fakeBackend) *DashboardService {
	client := fb.client()
	retrier := remote.NewRetrierWithWait((&recordedWaits{}).wait)
	return NewDashboardService(NewParkingService(client, retrier, 0), client, retrier)
}

func TestDashboardStatsCollectsEveryFigure(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		switch r.URL.Path {
		case "/parking/":
			writeJSON(w, http.StatusOK, `[
				{"id": 1, "nombre": "Lot A", "total_plazas": 20, "plazas_disponibles": 5},
				{"id": 2, "nombre": "Lot B", "total_plazas": "3", "plazas_disponibles": "2"},
				{"id": 3, "nombre": "Empty", "total_plazas": 0}
			]`)
		case "/reservations/recent/":
			writeJSON(w, http.StatusOK, `[{"id": 7, "estado": "ACTIVA", "user": {"email": "a@b.pe"}}]`)
		case "/reservations/active/count/":
			writeJSON(w, http.StatusOK, `4`)
		case "/reservations/revenue/today/":
			writeJSON(w, http.StatusOK, `"12.50"`)
		case "/reservations/revenue/monthly/":
			writeJSON(w, http.StatusOK, `{"total": 310.25}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	stats, err := newDashboardService(fb).Stats(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalParkings)
	assert.Equal(t, 23, stats.TotalSpaces)
	assert.Equal(t, 7, stats.AvailableSpaces)
	assert.Equal(t, int64(4), stats.ActiveReservations)
	assert.Equal(t, 12.5, stats.TodayRevenue)
	assert.Equal(t, 310.25, stats.MonthlyRevenue)
	assert.Empty(t, stats.Unavailable)

	require.Len(t, stats.RecentReservations, 1)
	assert.Equal(t, "7", stats.RecentReservations[0].ID.String())
	assert.JSONEq(t, `{"email": "a@b.pe"}`, string(stats.RecentReservations[0].User))

	require.Len(t, stats.ParkingStats, 3)
	assert.Equal(t, 75.0, stats.ParkingStats[0].OccupancyRate)
	assert.Equal(t, 33.33, stats.ParkingStats[1].OccupancyRate)
	assert.Equal(t, 0.0, stats.ParkingStats[2].OccupancyRate)
	assert.Equal(t, "Lot B", stats.ParkingStats[1].ParkingName)
}

func TestDashboardStatsDegradesFailedFiguresToZero(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		switch r.URL.Path {
		case "/parking/":
			writeJSON(w, http.StatusOK, `{"count": 1, "results": [{"id": 1, "nombre": "Lot A", "total_plazas": 10, "plazas_disponibles": 10}]}`)
		case "/reservations/revenue/today/":
			writeJSON(w, http.StatusOK, `<html>oops</html>`)
		case "/reservations/revenue/monthly/":
			writeJSON(w, http.StatusNotFound, ``)
		default:
			writeJSON(w, http.StatusServiceUnavailable, ``)
		}
	})

	stats, err := newDashboardService(fb).Stats(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalParkings)
	assert.Equal(t, 10, stats.TotalSpaces)
	assert.Zero(t, stats.ActiveReservations)
	assert.Zero(t, stats.TodayRevenue)
	assert.Zero(t, stats.MonthlyRevenue)
	assert.NotNil(t, stats.RecentReservations)
	assert.Empty(t, stats.RecentReservations)
	assert.Equal(t, []string{"activeReservations", "monthlyRevenue", "recentReservations", "todayRevenue"}, stats.Unavailable)

	assert.Equal(t, remote.MaxAttempts, fb.count("GET /reservations/active/count/"))
	assert.Equal(t, 1, fb.count("GET /reservations/revenue/today/"))
}

func TestDashboardStatsEmptyWhenBackendDown(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusBadGateway, ``)
	})

	stats, err := newDashboardService(fb).Stats(context.Background(), "tok")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalParkings)
	assert.Empty(t, stats.ParkingStats)
	assert.Len(t, stats.Unavailable, 5)
}

func TestDashboardStatsReportsExpiredSession(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"token expired"}`)
	})

	_, err := newDashboardService(fb).Stats(context.Background(), "tok")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
