package models

import "time"

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// AcceptsAdmissions reports whether the trip still takes workflow
// operations (admission, check-in, checkout, cancel).
func (s TripStatus) AcceptsAdmissions() bool {
	return s == TripScheduled || s == TripInProgress
}

// Trip is a scheduled transport event with a fixed seat capacity.
// Version guards every seat-affecting write.
type Trip struct {
	ID          int64      `json:"id"`
	Destination string     `json:"destination"`
	DepartureAt time.Time  `json:"departure_at"`
	ReturnAt    *time.Time `json:"return_at,omitempty"`
	SeatsTotal  int        `json:"seats_total"`
	VehicleID   int64      `json:"vehicle_id"`
	DriverID    int64      `json:"driver_id"`
	Status      TripStatus `json:"status"`
	Version     int64      `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TripWindow is the scheduling span a trip occupies, handed to the
// availability guard so fleet checks can look past the current moment.
type TripWindow struct {
	DepartureAt time.Time
	ReturnAt    *time.Time
}

func (t Trip) Window() TripWindow {
	return TripWindow{DepartureAt: t.DepartureAt, ReturnAt: t.ReturnAt}
}

// TripCapacity is the read model served by the capacity endpoint.
type TripCapacity struct {
	TripID         int64 `json:"trip_id"`
	SeatsTotal     int   `json:"seats_total"`
	SeatsAvailable int   `json:"seats_available"`
}
