package services

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "medtransport/internal/config"
	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"
	"medtransport/internal/utils"
)

// WaitlistService orders pending admissions and promotes them into confirmed
// seats when capacity frees up. Promotion always runs inside the ledger
// boundary of the release that freed the seats.
type WaitlistService struct {
	WaitlistRepo repositories.WaitlistRepo
	RecordRepo   repositories.RecordRepo
	TripRepo     repositories.TripRepo
	Guard        AvailabilityService
	DB           *sql.DB
	RequestID    string

	ListEntries func(ctx context.Context, q intdb.Execer, tripID int64) ([]models.WaitlistEntry, error)
}

func (s WaitlistService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s WaitlistService) entries() repositories.WaitlistRepo {
	if s.WaitlistRepo.DB != nil {
		return s.WaitlistRepo
	}
	return repositories.WaitlistRepo{DB: s.db()}
}

func (s WaitlistService) records() repositories.RecordRepo {
	if s.RecordRepo.DB != nil {
		return s.RecordRepo
	}
	return repositories.RecordRepo{DB: s.db()}
}

func (s WaitlistService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.db()}
}

func (s WaitlistService) list(ctx context.Context, q intdb.Execer, tripID int64) ([]models.WaitlistEntry, error) {
	if s.ListEntries != nil {
		return s.ListEntries(ctx, q, tripID)
	}
	return s.entries().ListByTrip(ctx, q, tripID)
}

// List returns the trip's queue in promotion order.
func (s WaitlistService) List(ctx context.Context, tripID int64) ([]models.WaitlistEntry, error) {
	return s.list(ctx, nil, tripID)
}

// Withdraw removes an entry and cancels its waitlisted record.
func (s WaitlistService) Withdraw(ctx context.Context, tripID, entryID int64) error {
	entry, err := s.entries().GetEntry(ctx, tripID, entryID)
	if err != nil {
		return err
	}
	ok, err := s.entries().DeleteEntry(ctx, nil, entryID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if !ok {
		return domain.NotFoundError{Resource: "waitlist entry"}
	}
	if entry.RecordID > 0 {
		if _, err := s.records().UpdateState(ctx, nil, entry.RecordID, models.RecordWaitlisted, models.RecordCancelled); err != nil {
			return domain.InternalError{Err: err}
		}
	}
	utils.LogEvent(s.RequestID, "waitlist", "withdraw", fmt.Sprintf("trip=%d entry=%d", tripID, entryID))
	return nil
}

// promotionPlan picks which entries fit the free seats, walking tiers in
// priority order. Within a tier FIFO is strict: the first entry that does
// not fit blocks the rest of its tier, but lower tiers may still fill the
// remaining seats.
func promotionPlan(entries []models.WaitlistEntry, available int) []models.WaitlistEntry {
	picked := []models.WaitlistEntry{}
	blockedTier := map[int]bool{}
	for _, e := range entries {
		tier := e.Priority.Rank()
		if blockedTier[tier] {
			continue
		}
		if e.RequestedSeats > available {
			blockedTier[tier] = true
			continue
		}
		picked = append(picked, e)
		available -= e.RequestedSeats
	}
	return picked
}

// PromoteLocked converts fitting entries into confirmed records. It must be
// called inside the ledger boundary that released the seats, so the freed
// capacity is offered to the queue before any competing admission sees it.
// A failing availability guard stops the whole run; entries stay queued.
func (s WaitlistService) PromoteLocked(ctx context.Context, tx intdb.Execer, trip models.Trip) ([]models.WaitlistEntry, error) {
	if err := s.Guard.CheckAssignable(ctx, trip.VehicleID, trip.DriverID, trip.Window()); err != nil {
		if domain.IsAvailability(err) {
			utils.LogEvent(s.RequestID, "waitlist", "promote_skipped", err.Error())
			return nil, nil
		}
		return nil, err
	}

	entries, err := s.list(ctx, tx, trip.ID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	used, err := s.trips().ActiveSeats(ctx, tx, trip.ID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	available := trip.SeatsTotal - used
	if available < 0 {
		available = 0
	}

	promoted := []models.WaitlistEntry{}
	for _, e := range promotionPlan(entries, available) {
		ok, err := s.records().UpdateState(ctx, tx, e.RecordID, models.RecordWaitlisted, models.RecordConfirmed)
		if err != nil {
			return promoted, domain.InternalError{Err: err}
		}
		if !ok {
			// record moved underneath us (e.g. cancelled); drop the entry
			_, _ = s.entries().DeleteEntry(ctx, tx, e.ID)
			continue
		}
		if _, err := s.entries().DeleteEntry(ctx, tx, e.ID); err != nil {
			return promoted, domain.InternalError{Err: err}
		}
		promoted = append(promoted, e)
		utils.LogEvent(s.RequestID, "waitlist", "promote",
			fmt.Sprintf("trip=%d patient=%d seats=%d", trip.ID, e.PatientID, e.RequestedSeats))
	}
	return promoted, nil
}
