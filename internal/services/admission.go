package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "medtransport/internal/config"
	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"
	"medtransport/internal/utils"
)

// AdmissionRequest is one patient asking for seats on a trip.
type AdmissionRequest struct {
	PatientID       int64
	PatientName     string
	HasCompanion    bool
	HasSpecialNeeds bool
	Priority        models.WaitlistPriority
}

// AdmissionResult reports either a confirmed record or a waitlist placement.
type AdmissionResult struct {
	RecordID        int64              `json:"record_id"`
	State           models.RecordState `json:"state"`
	SeatsClaimed    int                `json:"seats_claimed"`
	Reservation     *Reservation       `json:"reservation,omitempty"`
	WaitlistEntryID int64              `json:"waitlist_entry_id,omitempty"`
	Position        int                `json:"position,omitempty"`
}

// AdmissionService is the per-patient-per-trip state machine and the only
// component allowed to ask the ledger for seat mutations.
type AdmissionService struct {
	TripRepo     repositories.TripRepo
	RecordRepo   repositories.RecordRepo
	WaitlistRepo repositories.WaitlistRepo
	Ledger       LedgerService
	Guard        AvailabilityService
	Waitlist     WaitlistService
	Geo          GeolocationService
	DB           *sql.DB
	RequestID    string

	FetchTrip func(ctx context.Context, tripID int64) (models.Trip, error)
	Clock     func() time.Time
}

func (s AdmissionService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s AdmissionService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.db()}
}

func (s AdmissionService) records() repositories.RecordRepo {
	if s.RecordRepo.DB != nil {
		return s.RecordRepo
	}
	return repositories.RecordRepo{DB: s.db()}
}

func (s AdmissionService) entries() repositories.WaitlistRepo {
	if s.WaitlistRepo.DB != nil {
		return s.WaitlistRepo
	}
	return repositories.WaitlistRepo{DB: s.db()}
}

func (s AdmissionService) ledger() LedgerService {
	l := s.Ledger
	if l.DB == nil {
		l.DB = s.db()
	}
	if l.RequestID == "" {
		l.RequestID = s.RequestID
	}
	return l
}

func (s AdmissionService) waitlist() WaitlistService {
	w := s.Waitlist
	if w.DB == nil {
		w.DB = s.db()
	}
	if w.RequestID == "" {
		w.RequestID = s.RequestID
	}
	return w
}

func (s AdmissionService) fetchTrip(ctx context.Context, tripID int64) (models.Trip, error) {
	if s.FetchTrip != nil {
		return s.FetchTrip(ctx, tripID)
	}
	return s.trips().GetTrip(ctx, nil, tripID)
}

func (s AdmissionService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return utils.NowUTC()
}

func (s AdmissionService) validate(req AdmissionRequest) error {
	if req.PatientID <= 0 {
		return domain.ValidationError{Field: "patient_id", Msg: "invalid id"}
	}
	if strings.TrimSpace(req.PatientName) == "" {
		return domain.ValidationError{Field: "patient_name", Msg: "required"}
	}
	return nil
}

// ensureNoActiveRecord is the duplicate-patient check. It must run inside
// the ledger transaction: the per-trip lock serializes admissions, so two
// concurrent requests for one patient cannot both see an empty result.
func (s AdmissionService) ensureNoActiveRecord(ctx context.Context, q intdb.Execer, tripID, patientID int64) error {
	existing, err := s.records().GetActiveByPatient(ctx, q, tripID, patientID)
	if err == nil {
		return domain.ConflictError{
			Resource: "patient record",
			Msg:      fmt.Sprintf("patient already %s on this trip", existing.State),
		}
	}
	if !domain.IsNotFound(err) {
		return domain.InternalError{Err: err}
	}
	return nil
}

// Admit runs the single admission path: availability guard first (a blocked
// vehicle or driver refuses outright, no waitlist), then the seat reserve.
// A capacity miss parks the patient on the waitlist inside the same ledger
// transaction that observed the full trip, so a release on another request
// cannot promote past a patient who is about to be queued.
func (s AdmissionService) Admit(ctx context.Context, tripID int64, req AdmissionRequest) (AdmissionResult, error) {
	var out AdmissionResult
	if err := s.validate(req); err != nil {
		return out, err
	}

	trip, err := s.fetchTrip(ctx, tripID)
	if err != nil {
		return out, err
	}
	if !trip.Status.AcceptsAdmissions() {
		return out, domain.ValidationError{Field: "trip", Msg: "trip no longer accepts admissions"}
	}

	if err := s.Guard.CheckAssignable(ctx, trip.VehicleID, trip.DriverID, trip.Window()); err != nil {
		return out, err
	}

	seats := models.SeatsClaimed(req.HasCompanion)
	reservation, err := s.ledger().ReserveElse(ctx, tripID, seats,
		func(tx intdb.Tx, _ models.Trip) error {
			if err := s.ensureNoActiveRecord(ctx, tx, tripID, req.PatientID); err != nil {
				return err
			}
			id, err := s.records().InsertRecord(ctx, tx, models.PatientTripRecord{
				TripID:          tripID,
				PatientID:       req.PatientID,
				PatientName:     strings.TrimSpace(req.PatientName),
				HasCompanion:    req.HasCompanion,
				HasSpecialNeeds: req.HasSpecialNeeds,
				SeatsClaimed:    seats,
				State:           models.RecordConfirmed,
			})
			if err != nil {
				return domain.InternalError{Err: err}
			}
			out = AdmissionResult{RecordID: id, State: models.RecordConfirmed, SeatsClaimed: seats}
			return nil
		},
		func(tx intdb.Tx, _ models.Trip, _ int) error {
			if err := s.ensureNoActiveRecord(ctx, tx, tripID, req.PatientID); err != nil {
				return err
			}
			res, err := s.enqueueLocked(ctx, tx, tripID, req, seats)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	if err != nil {
		return AdmissionResult{}, err
	}

	if reservation != nil {
		out.Reservation = reservation
		utils.LogEvent(s.RequestID, "admission", "confirmed",
			fmt.Sprintf("trip=%d patient=%d seats=%d", tripID, req.PatientID, seats))
	} else {
		utils.LogEvent(s.RequestID, "admission", "waitlisted",
			fmt.Sprintf("trip=%d patient=%d entry=%d", tripID, req.PatientID, out.WaitlistEntryID))
	}
	return out, nil
}

// EnqueueWaitlist is the explicit waitlist entry point; it accepts a
// priority and never claims seats, but it still runs under the trip's
// ledger boundary so the record and its entry land atomically.
func (s AdmissionService) EnqueueWaitlist(ctx context.Context, tripID int64, req AdmissionRequest) (AdmissionResult, error) {
	var out AdmissionResult
	if err := s.validate(req); err != nil {
		return out, err
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return out, domain.ValidationError{Field: "priority", Msg: "must be high, medium or normal"}
	}

	seats := models.SeatsClaimed(req.HasCompanion)
	err := s.ledger().withTrip(ctx, tripID, func(tx intdb.Tx, trip models.Trip, _ int) error {
		if !trip.Status.AcceptsAdmissions() {
			return domain.ValidationError{Field: "trip", Msg: "trip no longer accepts admissions"}
		}
		if err := s.ensureNoActiveRecord(ctx, tx, tripID, req.PatientID); err != nil {
			return err
		}
		res, err := s.enqueueLocked(ctx, tx, tripID, req, seats)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return AdmissionResult{}, err
	}

	utils.LogEvent(s.RequestID, "admission", "waitlisted",
		fmt.Sprintf("trip=%d patient=%d entry=%d", tripID, req.PatientID, out.WaitlistEntryID))
	return out, nil
}

// enqueueLocked writes the waitlisted record and its queue entry through the
// caller's transaction. Callers hold the trip's ledger boundary.
func (s AdmissionService) enqueueLocked(ctx context.Context, tx intdb.Execer, tripID int64, req AdmissionRequest, seats int) (AdmissionResult, error) {
	var out AdmissionResult

	recordID, err := s.records().InsertRecord(ctx, tx, models.PatientTripRecord{
		TripID:          tripID,
		PatientID:       req.PatientID,
		PatientName:     strings.TrimSpace(req.PatientName),
		HasCompanion:    req.HasCompanion,
		HasSpecialNeeds: req.HasSpecialNeeds,
		SeatsClaimed:    seats,
		State:           models.RecordWaitlisted,
	})
	if err != nil {
		return out, domain.InternalError{Err: err}
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	entryID, err := s.entries().InsertEntry(ctx, tx, models.WaitlistEntry{
		TripID:          tripID,
		RecordID:        recordID,
		PatientID:       req.PatientID,
		PatientName:     strings.TrimSpace(req.PatientName),
		Priority:        priority,
		HasCompanion:    req.HasCompanion,
		HasSpecialNeeds: req.HasSpecialNeeds,
		RequestedSeats:  seats,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return out, domain.InternalError{Err: err}
	}

	position, err := s.entries().Position(ctx, tx, tripID, entryID)
	if err != nil {
		position = 0
	}

	return AdmissionResult{
		RecordID:        recordID,
		State:           models.RecordWaitlisted,
		SeatsClaimed:    seats,
		WaitlistEntryID: entryID,
		Position:        position,
	}, nil
}

// CheckIn moves confirmed -> checked_in, stamping the server clock and
// best-effort location. The seat stays consumed.
func (s AdmissionService) CheckIn(ctx context.Context, tripID, patientID int64, supplied *models.GeoPoint) (models.PatientTripRecord, error) {
	var out models.PatientTripRecord

	trip, err := s.fetchTrip(ctx, tripID)
	if err != nil {
		return out, err
	}
	if !trip.Status.AcceptsAdmissions() {
		return out, domain.ValidationError{Field: "trip", Msg: "trip no longer accepts admissions"}
	}

	rec, err := s.records().GetActiveByPatient(ctx, nil, tripID, patientID)
	if err != nil {
		return out, err
	}
	if rec.State != models.RecordConfirmed {
		return out, domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCheckedIn)}
	}

	at := s.now()
	loc := s.Geo.Capture(ctx, supplied)

	ok, err := s.records().MarkCheckedIn(ctx, nil, rec.ID, at, loc)
	if err != nil {
		return out, domain.InternalError{Err: err}
	}
	if !ok {
		return out, domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCheckedIn)}
	}

	rec.State = models.RecordCheckedIn
	rec.CheckinAt = &at
	rec.CheckinLocation = loc
	utils.LogEvent(s.RequestID, "admission", "checkin", fmt.Sprintf("trip=%d patient=%d", tripID, patientID))
	return rec, nil
}

// CheckOut moves checked_in -> checked_out, releases the record's seats and
// promotes the waitlist inside the same ledger boundary.
func (s AdmissionService) CheckOut(ctx context.Context, tripID, patientID int64, notes string) (models.PatientTripRecord, []models.WaitlistEntry, error) {
	var out models.PatientTripRecord

	rec, err := s.records().GetActiveByPatient(ctx, nil, tripID, patientID)
	if err != nil {
		return out, nil, err
	}
	if rec.State != models.RecordCheckedIn {
		return out, nil, domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCheckedOut)}
	}

	at := s.now()
	var promoted []models.WaitlistEntry
	err = s.ledger().Release(ctx, tripID,
		func(tx intdb.Tx, _ models.Trip) error {
			ok, err := s.records().MarkCheckedOut(ctx, tx, rec.ID, at, strings.TrimSpace(notes))
			if err != nil {
				return domain.InternalError{Err: err}
			}
			if !ok {
				return domain.InvalidTransitionError{From: string(models.RecordCheckedOut), To: string(models.RecordCheckedOut)}
			}
			return nil
		},
		func(tx intdb.Tx, trip models.Trip) error {
			var err error
			promoted, err = s.waitlist().PromoteLocked(ctx, tx, trip)
			return err
		})
	if err != nil {
		return out, nil, err
	}

	rec.State = models.RecordCheckedOut
	rec.CheckoutAt = &at
	rec.CheckoutNotes = strings.TrimSpace(notes)
	utils.LogEvent(s.RequestID, "admission", "checkout",
		fmt.Sprintf("trip=%d patient=%d promoted=%d", tripID, patientID, len(promoted)))
	return rec, promoted, nil
}

// Cancel soft-cancels a waitlisted or confirmed record. Checked-in patients
// are in active custody and must be checked out first; checked-out and
// cancelled records are history.
func (s AdmissionService) Cancel(ctx context.Context, tripID, patientID int64) ([]models.WaitlistEntry, error) {
	rec, err := s.records().GetActiveByPatient(ctx, nil, tripID, patientID)
	if err != nil {
		return nil, err
	}

	switch rec.State {
	case models.RecordWaitlisted:
		ok, err := s.records().UpdateState(ctx, nil, rec.ID, models.RecordWaitlisted, models.RecordCancelled)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		if !ok {
			return nil, domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCancelled)}
		}
		// drop the queue entry that pointed at this record
		entries, err := s.entries().ListByTrip(ctx, nil, tripID)
		if err == nil {
			for _, e := range entries {
				if e.RecordID == rec.ID {
					_, _ = s.entries().DeleteEntry(ctx, nil, e.ID)
					break
				}
			}
		}
		utils.LogEvent(s.RequestID, "admission", "cancel", fmt.Sprintf("trip=%d patient=%d (waitlisted)", tripID, patientID))
		return nil, nil

	case models.RecordConfirmed:
		var promoted []models.WaitlistEntry
		err := s.ledger().Release(ctx, tripID,
			func(tx intdb.Tx, _ models.Trip) error {
				ok, err := s.records().UpdateState(ctx, tx, rec.ID, models.RecordConfirmed, models.RecordCancelled)
				if err != nil {
					return domain.InternalError{Err: err}
				}
				if !ok {
					return domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCancelled)}
				}
				return nil
			},
			func(tx intdb.Tx, trip models.Trip) error {
				var err error
				promoted, err = s.waitlist().PromoteLocked(ctx, tx, trip)
				return err
			})
		if err != nil {
			return nil, err
		}
		utils.LogEvent(s.RequestID, "admission", "cancel",
			fmt.Sprintf("trip=%d patient=%d promoted=%d", tripID, patientID, len(promoted)))
		return promoted, nil

	default:
		return nil, domain.InvalidTransitionError{From: string(rec.State), To: string(models.RecordCancelled)}
	}
}

// Capacity serves the read-only capacity view.
func (s AdmissionService) Capacity(ctx context.Context, tripID int64) (models.TripCapacity, error) {
	trip, err := s.fetchTrip(ctx, tripID)
	if err != nil {
		return models.TripCapacity{}, err
	}
	available, err := s.ledger().AvailableSeats(ctx, tripID)
	if err != nil {
		return models.TripCapacity{}, err
	}
	return models.TripCapacity{
		TripID:         tripID,
		SeatsTotal:     trip.SeatsTotal,
		SeatsAvailable: available,
	}, nil
}
