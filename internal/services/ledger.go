package services

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	intconfig "medtransport/internal/config"
	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"
	"medtransport/internal/utils"
)

// tripLocks serializes seat-affecting work per trip. Cross-trip operations
// never nest, so a flat registry is enough.
type tripLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func (l *tripLocks) forTrip(tripID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = map[int64]*sync.Mutex{}
	}
	if _, ok := l.m[tripID]; !ok {
		l.m[tripID] = &sync.Mutex{}
	}
	return l.m[tripID]
}

var ledgerLocks = &tripLocks{}

// Reservation is the token handed back for a successful seat claim.
type Reservation struct {
	Token  string `json:"token"`
	TripID int64  `json:"trip_id"`
	Seats  int    `json:"seats"`
}

// LedgerService is the authoritative seat ledger. Every reserve and release
// runs under the trip's lock plus an optimistic version bump on the trips
// row; a version miss is retried once, then surfaced as a concurrency error.
type LedgerService struct {
	TripRepo  repositories.TripRepo
	DB        *sql.DB
	RequestID string

	// Injectable funcs for tests. Nil means the repo path.
	BeginTx     func(ctx context.Context) (intdb.Tx, error)
	FetchTrip   func(ctx context.Context, q intdb.Execer, tripID int64) (models.Trip, error)
	ActiveSeats func(ctx context.Context, q intdb.Execer, tripID int64) (int, error)
	BumpVersion func(ctx context.Context, q intdb.Execer, tripID, version int64) (bool, error)
}

func (s LedgerService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s LedgerService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.db()}
}

func (s LedgerService) begin(ctx context.Context) (intdb.Tx, error) {
	if s.BeginTx != nil {
		return s.BeginTx(ctx)
	}
	return s.db().BeginTx(ctx, nil)
}

func (s LedgerService) fetchTrip(ctx context.Context, q intdb.Execer, tripID int64) (models.Trip, error) {
	if s.FetchTrip != nil {
		return s.FetchTrip(ctx, q, tripID)
	}
	return s.trips().GetTrip(ctx, q, tripID)
}

func (s LedgerService) activeSeats(ctx context.Context, q intdb.Execer, tripID int64) (int, error) {
	if s.ActiveSeats != nil {
		return s.ActiveSeats(ctx, q, tripID)
	}
	return s.trips().ActiveSeats(ctx, q, tripID)
}

func (s LedgerService) bumpVersion(ctx context.Context, q intdb.Execer, tripID, version int64) (bool, error) {
	if s.BumpVersion != nil {
		return s.BumpVersion(ctx, q, tripID, version)
	}
	return s.trips().BumpVersion(ctx, q, tripID, version)
}

// withTrip runs fn inside the trip's serialization boundary: per-trip lock,
// one transaction, version CAS on commit. A CAS miss rolls back and retries
// the whole closure once from a fresh read.
func (s LedgerService) withTrip(ctx context.Context, tripID int64, fn func(tx intdb.Tx, trip models.Trip, available int) error) error {
	lock := ledgerLocks.forTrip(tripID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		tx, err := s.begin(ctx)
		if err != nil {
			return domain.InternalError{Err: err}
		}

		trip, err := s.fetchTrip(ctx, tx, tripID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		used, err := s.activeSeats(ctx, tx, tripID)
		if err != nil {
			_ = tx.Rollback()
			return domain.InternalError{Err: err}
		}
		available := trip.SeatsTotal - used
		if available < 0 {
			available = 0
		}

		if err := fn(tx, trip, available); err != nil {
			_ = tx.Rollback()
			return err
		}

		ok, err := s.bumpVersion(ctx, tx, tripID, trip.Version)
		if err != nil {
			_ = tx.Rollback()
			return domain.InternalError{Err: err}
		}
		if !ok {
			_ = tx.Rollback()
			if attempt == 0 {
				utils.LogEvent(s.RequestID, "ledger", "retry", "version conflict, re-reading trip")
				continue
			}
			return domain.ConcurrencyError{Resource: "trip"}
		}

		if err := tx.Commit(); err != nil {
			return domain.InternalError{Err: err}
		}
		return nil
	}
	return domain.ConcurrencyError{Resource: "trip"}
}

// Reserve claims seats for one admission and runs commit inside the same
// transaction, so a failed insert leaves no seat consumed.
func (s LedgerService) Reserve(ctx context.Context, tripID int64, seats int, commit func(tx intdb.Tx, trip models.Trip) error) (Reservation, error) {
	res, err := s.ReserveElse(ctx, tripID, seats, commit, nil)
	if err != nil {
		return Reservation{}, err
	}
	return *res, nil
}

// ReserveElse claims seats like Reserve, but when the trip cannot fit the
// request it runs onFull inside the same transaction instead of failing.
// Whatever onFull records is committed before the trip lock is dropped, so
// a concurrent release cannot slip between the capacity verdict and the
// fallback. A nil reservation is returned on the onFull path.
func (s LedgerService) ReserveElse(ctx context.Context, tripID int64, seats int, commit func(tx intdb.Tx, trip models.Trip) error, onFull func(tx intdb.Tx, trip models.Trip, available int) error) (*Reservation, error) {
	if seats <= 0 {
		return nil, domain.ValidationError{Field: "seats", Msg: "must be positive"}
	}

	full := false
	err := s.withTrip(ctx, tripID, func(tx intdb.Tx, trip models.Trip, available int) error {
		full = false
		if !trip.Status.AcceptsAdmissions() {
			return domain.ValidationError{Field: "trip", Msg: "trip no longer accepts admissions"}
		}
		if available < seats {
			if onFull == nil {
				return domain.CapacityError{Requested: seats, Available: available}
			}
			full = true
			return onFull(tx, trip, available)
		}
		if commit != nil {
			return commit(tx, trip)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if full {
		return nil, nil
	}

	res := &Reservation{Token: uuid.NewString(), TripID: tripID, Seats: seats}
	utils.LogEvent(s.RequestID, "ledger", "reserve", res.Token)
	return res, nil
}

// Release frees seats by letting commit move the owning record out of an
// active state, then offers the freed seats to the waitlist via promote
// before the boundary is dropped. Either callback may be nil.
func (s LedgerService) Release(ctx context.Context, tripID int64, commit func(tx intdb.Tx, trip models.Trip) error, promote func(tx intdb.Tx, trip models.Trip) error) error {
	return s.withTrip(ctx, tripID, func(tx intdb.Tx, trip models.Trip, available int) error {
		if commit != nil {
			if err := commit(tx, trip); err != nil {
				return err
			}
		}
		if promote != nil {
			return promote(tx, trip)
		}
		return nil
	})
}

// AvailableSeats answers the read-only capacity question; never negative.
func (s LedgerService) AvailableSeats(ctx context.Context, tripID int64) (int, error) {
	trip, err := s.fetchTrip(ctx, nil, tripID)
	if err != nil {
		return 0, err
	}
	used, err := s.activeSeats(ctx, nil, tripID)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	available := trip.SeatsTotal - used
	if available < 0 {
		available = 0
	}
	return available, nil
}
