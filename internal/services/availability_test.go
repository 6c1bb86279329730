package services

import (
	"context"
	"testing"
	"time"

	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
)

func guardWith(vehicle models.Vehicle, driver models.Driver, now time.Time) AvailabilityService {
	return AvailabilityService{
		Now: func() time.Time { return now },
		FetchVehicle: func(context.Context, int64) (models.Vehicle, error) {
			return vehicle, nil
		},
		FetchDriver: func(context.Context, int64) (models.Driver, error) {
			return driver, nil
		},
	}
}

func TestCheckAssignableHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	guard := guardWith(
		models.Vehicle{ID: 1, OperationalStatus: models.VehicleAvailable},
		models.Driver{ID: 2, Status: models.DriverActive},
		now,
	)
	if err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{}); err != nil {
		t.Fatalf("expected assignable, got %v", err)
	}
}

func TestCheckAssignableVehicleBlocked(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, status := range []models.VehicleStatus{models.VehicleMaintenance, models.VehicleInactive} {
		guard := guardWith(
			models.Vehicle{ID: 1, OperationalStatus: status},
			models.Driver{ID: 2, Status: models.DriverActive},
			now,
		)
		err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{})
		if !domain.IsAvailability(err) {
			t.Errorf("%s vehicle: expected availability error, got %v", status, err)
		}
	}
}

func TestCheckAssignableMaintenanceDueByOdometer(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	guard := guardWith(
		models.Vehicle{
			ID:                1,
			OperationalStatus: models.VehicleAvailable,
			OdometerKm:        120_500,
			MaintenanceDueKm:  120_000,
		},
		models.Driver{ID: 2, Status: models.DriverActive},
		now,
	)
	if err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{}); !domain.IsAvailability(err) {
		t.Fatalf("expected availability error for overdue odometer, got %v", err)
	}
}

func TestCheckAssignableMaintenanceDueByDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)
	guard := guardWith(
		models.Vehicle{
			ID:                1,
			OperationalStatus: models.VehicleAvailable,
			NextMaintenanceAt: &due,
		},
		models.Driver{ID: 2, Status: models.DriverActive},
		now,
	)
	if err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{}); !domain.IsAvailability(err) {
		t.Fatalf("expected availability error for overdue maintenance date, got %v", err)
	}
}

func TestCheckAssignableMaintenanceDueBeforeDeparture(t *testing.T) {
	// serviceable today, but the maintenance date lands before the trip
	// departs; the window must be what the guard judges against
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	guard := guardWith(
		models.Vehicle{
			ID:                1,
			OperationalStatus: models.VehicleAvailable,
			NextMaintenanceAt: &due,
		},
		models.Driver{ID: 2, Status: models.DriverActive},
		now,
	)

	if err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{}); err != nil {
		t.Fatalf("no window: vehicle fine today, got %v", err)
	}

	departure := now.Add(72 * time.Hour)
	err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{DepartureAt: departure})
	if !domain.IsAvailability(err) {
		t.Fatalf("expected availability error for maintenance before departure, got %v", err)
	}
}

func TestCheckAssignableDriverUnavailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, status := range []models.DriverStatus{models.DriverOnLeave, models.DriverOnVacation, models.DriverInactive} {
		guard := guardWith(
			models.Vehicle{ID: 1, OperationalStatus: models.VehicleAvailable},
			models.Driver{ID: 2, Status: status},
			now,
		)
		err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{})
		if !domain.IsAvailability(err) {
			t.Errorf("%s driver: expected availability error, got %v", status, err)
		}
	}
}

func TestVehicleOnTripStillAssignable(t *testing.T) {
	// on_trip only means the vehicle is currently out, not that it may not
	// take further admissions for its own trip
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	guard := guardWith(
		models.Vehicle{ID: 1, OperationalStatus: models.VehicleOnTrip},
		models.Driver{ID: 2, Status: models.DriverActive},
		now,
	)
	if err := guard.CheckAssignable(context.Background(), 1, 2, models.TripWindow{}); err != nil {
		t.Fatalf("expected on_trip vehicle assignable, got %v", err)
	}
}
