package services

import (
	"context"
	"database/sql"
	"time"

	intconfig "medtransport/internal/config"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"
)

// AvailabilityService checks that a trip's vehicle and driver can carry
// passengers. It runs at trip creation, on reassignment, and again on every
// admission, because fleet status can change mid-trip.
type AvailabilityService struct {
	VehicleRepo repositories.VehicleRepo
	DriverRepo  repositories.DriverRepo
	DB          *sql.DB

	Now          func() time.Time
	FetchVehicle func(ctx context.Context, vehicleID int64) (models.Vehicle, error)
	FetchDriver  func(ctx context.Context, driverID int64) (models.Driver, error)
}

func (s AvailabilityService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s AvailabilityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s AvailabilityService) vehicle(ctx context.Context, vehicleID int64) (models.Vehicle, error) {
	if s.FetchVehicle != nil {
		return s.FetchVehicle(ctx, vehicleID)
	}
	repo := s.VehicleRepo
	if repo.DB == nil {
		repo = repositories.VehicleRepo{DB: s.db()}
	}
	return repo.GetVehicle(ctx, vehicleID)
}

func (s AvailabilityService) driver(ctx context.Context, driverID int64) (models.Driver, error) {
	if s.FetchDriver != nil {
		return s.FetchDriver(ctx, driverID)
	}
	repo := s.DriverRepo
	if repo.DB == nil {
		repo = repositories.DriverRepo{DB: s.db()}
	}
	return repo.GetDriver(ctx, driverID)
}

// CheckAssignable returns nil when the pair may take new passengers for the
// given window, or an AvailabilityError naming what blocks them. The vehicle
// must stay serviceable through the window's departure, not just today: a
// maintenance date that lands before departure refuses the admission now
// rather than stranding a full trip later.
func (s AvailabilityService) CheckAssignable(ctx context.Context, vehicleID, driverID int64, window models.TripWindow) error {
	v, err := s.vehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	switch v.OperationalStatus {
	case models.VehicleMaintenance:
		return domain.AvailabilityError{Resource: "vehicle", Reason: "under maintenance"}
	case models.VehicleInactive:
		return domain.AvailabilityError{Resource: "vehicle", Reason: "inactive"}
	}
	ref := s.now()
	if window.DepartureAt.After(ref) {
		ref = window.DepartureAt
	}
	if v.MaintenanceDue(ref) {
		return domain.AvailabilityError{Resource: "vehicle", Reason: "maintenance due"}
	}

	d, err := s.driver(ctx, driverID)
	if err != nil {
		return err
	}
	if d.Status != models.DriverActive {
		return domain.AvailabilityError{Resource: "driver", Reason: string(d.Status)}
	}
	return nil
}
