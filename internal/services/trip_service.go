package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intconfig "medtransport/internal/config"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"
	"medtransport/internal/utils"
)

// TripService owns trip scheduling: creation, status moves and vehicle or
// driver reassignment, all guard-checked.
type TripService struct {
	TripRepo  repositories.TripRepo
	Guard     AvailabilityService
	DB        *sql.DB
	RequestID string
}

func (s TripService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s TripService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.db()}
}

func (s TripService) CreateTrip(ctx context.Context, t models.Trip) (models.Trip, error) {
	t.Destination = strings.TrimSpace(t.Destination)
	if t.Destination == "" {
		return t, domain.ValidationError{Field: "destination", Msg: "required"}
	}
	if t.SeatsTotal <= 0 {
		return t, domain.ValidationError{Field: "seats_total", Msg: "must be positive"}
	}
	if t.DepartureAt.IsZero() {
		return t, domain.ValidationError{Field: "departure_at", Msg: "required"}
	}
	if t.ReturnAt != nil && t.ReturnAt.Before(t.DepartureAt) {
		return t, domain.ValidationError{Field: "return_at", Msg: "before departure"}
	}
	if t.VehicleID <= 0 || t.DriverID <= 0 {
		return t, domain.ValidationError{Field: "assignment", Msg: "vehicle and driver required"}
	}

	if err := s.Guard.CheckAssignable(ctx, t.VehicleID, t.DriverID, t.Window()); err != nil {
		return t, err
	}

	t.Status = models.TripScheduled
	id, err := s.trips().CreateTrip(ctx, t)
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	t.ID = id
	utils.LogEvent(s.RequestID, "trip", "create", fmt.Sprintf("trip=%d seats=%d", id, t.SeatsTotal))
	return t, nil
}

// tripStatusMoves is the closed transition table for trip status.
var tripStatusMoves = map[models.TripStatus][]models.TripStatus{
	models.TripScheduled:  {models.TripInProgress, models.TripCancelled},
	models.TripInProgress: {models.TripCompleted, models.TripCancelled},
}

func (s TripService) UpdateStatus(ctx context.Context, tripID int64, status models.TripStatus) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	trip, err := s.trips().GetTrip(ctx, nil, tripID)
	if err != nil {
		return err
	}
	allowed := false
	for _, next := range tripStatusMoves[trip.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.InvalidTransitionError{From: string(trip.Status), To: string(status)}
	}
	if err := s.trips().UpdateStatus(ctx, tripID, status); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "trip", "status", fmt.Sprintf("trip=%d %s->%s", tripID, trip.Status, status))
	return nil
}

func (s TripService) Reassign(ctx context.Context, tripID, vehicleID, driverID int64) error {
	if vehicleID <= 0 || driverID <= 0 {
		return domain.ValidationError{Field: "assignment", Msg: "vehicle and driver required"}
	}
	trip, err := s.trips().GetTrip(ctx, nil, tripID)
	if err != nil {
		return err
	}
	if !trip.Status.AcceptsAdmissions() {
		return domain.ValidationError{Field: "trip", Msg: "trip is settled"}
	}
	if err := s.Guard.CheckAssignable(ctx, vehicleID, driverID, trip.Window()); err != nil {
		return err
	}
	if err := s.trips().UpdateAssignment(ctx, tripID, vehicleID, driverID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "trip", "reassign",
		fmt.Sprintf("trip=%d vehicle=%d driver=%d", tripID, vehicleID, driverID))
	return nil
}
