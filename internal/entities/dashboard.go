package entities

import "encoding/json"

// RecentReservation is a reservation as listed by /reservations/recent/.
// The nested user and parking objects are passed through untouched.
type RecentReservation struct {
	ID              FlexString      `json:"id"`
	Estado          string          `json:"estado"`
	ReservationDate FlexString      `json:"reservationDate,omitempty"`
	User            json.RawMessage `json:"user,omitempty"`
	Parking         json.RawMessage `json:"parking,omitempty"`
}

// ParkingStats is the occupancy of one lot.
type ParkingStats struct {
	ParkingID       string  `json:"parkingId"`
	ParkingName     string  `json:"parkingName"`
	TotalSpaces     int     `json:"totalSpaces"`
	AvailableSpaces int     `json:"availableSpaces"`
	OccupancyRate   float64 `json:"occupancyRate"`
}

// DashboardStats summarizes the owner's lots and reservations. Unavailable
// lists the figures that could not be fetched and were reported as zero.
type DashboardStats struct {
	TotalParkings      int                 `json:"totalParkings"`
	TotalSpaces        int                 `json:"totalSpaces"`
	AvailableSpaces    int                 `json:"availableSpaces"`
	ActiveReservations int64               `json:"activeReservations"`
	TodayRevenue       float64             `json:"todayRevenue"`
	MonthlyRevenue     float64             `json:"monthlyRevenue"`
	RecentReservations []RecentReservation `json:"recentReservations"`
	ParkingStats       []ParkingStats      `json:"parkingStats"`
	Unavailable        []string            `json:"unavailable,omitempty"`
}
