package models

import "time"

type WaitlistPriority string

const (
	PriorityHigh   WaitlistPriority = "high"
	PriorityMedium WaitlistPriority = "medium"
	PriorityNormal WaitlistPriority = "normal"
)

func (p WaitlistPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityNormal:
		return true
	}
	return false
}

// Rank orders tiers for promotion: lower ranks promote first.
func (p WaitlistPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// WaitlistEntry is a pending admission that did not fit the trip's free
// seats. Promoted into a PatientTripRecord or withdrawn; FIFO within a tier.
type WaitlistEntry struct {
	ID              int64            `json:"id"`
	TripID          int64            `json:"trip_id"`
	RecordID        int64            `json:"record_id"`
	PatientID       int64            `json:"patient_id"`
	PatientName     string           `json:"patient_name"`
	Priority        WaitlistPriority `json:"priority"`
	HasCompanion    bool             `json:"has_companion"`
	HasSpecialNeeds bool             `json:"has_special_needs"`
	RequestedSeats  int              `json:"requested_seats"`
	CreatedAt       time.Time        `json:"created_at"`
}
