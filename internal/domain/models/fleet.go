package models

import "time"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleOnTrip      VehicleStatus = "on_trip"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleInactive    VehicleStatus = "inactive"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleOnTrip, VehicleMaintenance, VehicleInactive:
		return true
	}
	return false
}

type DriverStatus string

const (
	DriverActive     DriverStatus = "active"
	DriverOnLeave    DriverStatus = "on_leave"
	DriverOnVacation DriverStatus = "on_vacation"
	DriverInactive   DriverStatus = "inactive"
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverActive, DriverOnLeave, DriverOnVacation, DriverInactive:
		return true
	}
	return false
}

// Vehicle is a read-only input to the availability guard; status changes are
// owned by fleet management, not by the admission engine.
type Vehicle struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	PlateNumber       string        `json:"plate_number"`
	Capacity          int           `json:"capacity"`
	OperationalStatus VehicleStatus `json:"operational_status"`
	OdometerKm        int64         `json:"odometer_km"`
	MaintenanceDueKm  int64         `json:"maintenance_due_km"`
	NextMaintenanceAt *time.Time    `json:"next_maintenance_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// MaintenanceDue derives the pending-maintenance flag from odometer and date
// thresholds. A due vehicle finishes confirmed trips but takes no new
// admissions.
func (v Vehicle) MaintenanceDue(now time.Time) bool {
	if v.MaintenanceDueKm > 0 && v.OdometerKm >= v.MaintenanceDueKm {
		return true
	}
	if v.NextMaintenanceAt != nil && !now.Before(*v.NextMaintenanceAt) {
		return true
	}
	return false
}

type Driver struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	LicenseNumber string       `json:"license_number"`
	Status        DriverStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}
