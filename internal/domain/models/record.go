package models

import "time"

type RecordState string

const (
	RecordWaitlisted RecordState = "waitlisted"
	RecordConfirmed  RecordState = "confirmed"
	RecordCheckedIn  RecordState = "checked_in"
	RecordCheckedOut RecordState = "checked_out"
	RecordCancelled  RecordState = "cancelled"
)

func (s RecordState) Valid() bool {
	switch s {
	case RecordWaitlisted, RecordConfirmed, RecordCheckedIn, RecordCheckedOut, RecordCancelled:
		return true
	}
	return false
}

// ConsumesSeat reports whether the record holds seats against the trip's
// capacity. Checked-out records stay in history but free their seats.
func (s RecordState) ConsumesSeat() bool {
	return s == RecordConfirmed || s == RecordCheckedIn
}

// recordTransitions is the closed transition table for a patient's lifecycle
// within a trip. Anything not listed is an invalid transition.
var recordTransitions = map[RecordState][]RecordState{
	RecordWaitlisted: {RecordConfirmed, RecordCancelled},
	RecordConfirmed:  {RecordCheckedIn, RecordCancelled},
	RecordCheckedIn:  {RecordCheckedOut},
}

// CanTransition reports whether from -> to is a permitted lifecycle change.
func CanTransition(from, to RecordState) bool {
	for _, next := range recordTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SeatsClaimed derives the seat demand of an admission: the patient plus one
// extra seat when a companion rides along. Special needs alone never add a
// seat.
func SeatsClaimed(hasCompanion bool) int {
	if hasCompanion {
		return 2
	}
	return 1
}

// GeoPoint is optional check-in metadata, best effort only.
type GeoPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m,omitempty"`
}

// PatientTripRecord tracks one patient's attendance on one trip. Owned by the
// trip; soft-cancelled through the workflow, never deleted while checked in.
type PatientTripRecord struct {
	ID              int64       `json:"id"`
	TripID          int64       `json:"trip_id"`
	PatientID       int64       `json:"patient_id"`
	PatientName     string      `json:"patient_name"`
	HasCompanion    bool        `json:"has_companion"`
	HasSpecialNeeds bool        `json:"has_special_needs"`
	SeatsClaimed    int         `json:"seats_claimed"`
	State           RecordState `json:"state"`
	CheckinAt       *time.Time  `json:"checkin_at,omitempty"`
	CheckinLocation *GeoPoint   `json:"checkin_location,omitempty"`
	CheckoutAt      *time.Time  `json:"checkout_at,omitempty"`
	CheckoutNotes   string      `json:"checkout_notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
