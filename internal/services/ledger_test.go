package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
)

// memTx satisfies intdb.Tx for ledger tests that drive the seat state
// through injected funcs instead of SQL.
type memTx struct {
	commits   *int
	rollbacks *int
}

func (t memTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}
func (t memTx) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}
func (t memTx) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}
func (t memTx) Commit() error {
	if t.commits != nil {
		*t.commits++
	}
	return nil
}
func (t memTx) Rollback() error {
	if t.rollbacks != nil {
		*t.rollbacks++
	}
	return nil
}

// memTripStore holds seat state for a single trip. It is only touched from
// inside the ledger's per-trip boundary, which is the property under test.
type memTripStore struct {
	seatsTotal int
	consumed   int
	version    int64
	status     models.TripStatus
}

func memLedger(store *memTripStore) LedgerService {
	return LedgerService{
		BeginTx: func(context.Context) (intdb.Tx, error) {
			return memTx{}, nil
		},
		FetchTrip: func(context.Context, intdb.Execer, int64) (models.Trip, error) {
			status := store.status
			if status == "" {
				status = models.TripScheduled
			}
			return models.Trip{ID: 1, SeatsTotal: store.seatsTotal, Version: store.version, Status: status}, nil
		},
		ActiveSeats: func(context.Context, intdb.Execer, int64) (int, error) {
			return store.consumed, nil
		},
		BumpVersion: func(_ context.Context, _ intdb.Execer, _ int64, version int64) (bool, error) {
			if store.version != version {
				return false, nil
			}
			store.version++
			return true, nil
		},
	}
}

func TestReserveConcurrentNeverOverbooks(t *testing.T) {
	store := &memTripStore{seatsTotal: 5}
	svc := memLedger(store)

	const requests = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	confirmed, capacityErrs := 0, 0

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), 1, 1, func(intdb.Tx, models.Trip) error {
				store.consumed++
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case domain.IsCapacity(err):
				capacityErrs++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if confirmed != 5 {
		t.Fatalf("expected exactly 5 confirmed reservations, got %d", confirmed)
	}
	if capacityErrs != requests-5 {
		t.Fatalf("expected %d capacity errors, got %d", requests-5, capacityErrs)
	}
	if store.consumed > store.seatsTotal {
		t.Fatalf("invariant violated: consumed %d > total %d", store.consumed, store.seatsTotal)
	}
}

func TestReserveSingleSeatTwoCompetingRequests(t *testing.T) {
	store := &memTripStore{seatsTotal: 1}
	svc := memLedger(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), 1, 1, func(intdb.Tx, models.Trip) error {
				store.consumed++
				return nil
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	confirmed, rejected := 0, 0
	for err := range results {
		if err == nil {
			confirmed++
		} else if domain.IsCapacity(err) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if confirmed != 1 || rejected != 1 {
		t.Fatalf("expected one confirmed and one rejected, got %d/%d", confirmed, rejected)
	}
}

func TestReserveRetriesVersionConflictOnce(t *testing.T) {
	store := &memTripStore{seatsTotal: 2}
	svc := memLedger(store)

	misses := 1
	svc.BumpVersion = func(context.Context, intdb.Execer, int64, int64) (bool, error) {
		if misses > 0 {
			misses--
			return false, nil
		}
		return true, nil
	}

	if _, err := svc.Reserve(context.Background(), 1, 1, nil); err != nil {
		t.Fatalf("expected retry to absorb the first version miss, got %v", err)
	}
}

func TestReserveSurfacesSecondConflict(t *testing.T) {
	store := &memTripStore{seatsTotal: 2}
	svc := memLedger(store)
	svc.BumpVersion = func(context.Context, intdb.Execer, int64, int64) (bool, error) {
		return false, nil
	}

	_, err := svc.Reserve(context.Background(), 1, 1, nil)
	if !domain.IsConcurrency(err) {
		t.Fatalf("expected concurrency error after second miss, got %v", err)
	}
}

func TestReserveRejectsSettledTrip(t *testing.T) {
	store := &memTripStore{seatsTotal: 3, status: models.TripCompleted}
	svc := memLedger(store)

	_, err := svc.Reserve(context.Background(), 1, 1, nil)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error on completed trip, got %v", err)
	}
}

func TestLedgerFullLifecycleScenario(t *testing.T) {
	// seatsTotal=2: admit A (1 seat), B needs 2 and is rejected, A checks
	// out (seat freed), B still does not fit, C (1 seat) is admitted.
	store := &memTripStore{seatsTotal: 2}
	svc := memLedger(store)
	claim := func(seats int) func(intdb.Tx, models.Trip) error {
		return func(intdb.Tx, models.Trip) error {
			store.consumed += seats
			return nil
		}
	}

	if _, err := svc.Reserve(context.Background(), 1, 1, claim(1)); err != nil {
		t.Fatalf("patient A should be confirmed: %v", err)
	}
	if _, err := svc.Reserve(context.Background(), 1, 2, claim(2)); !domain.IsCapacity(err) {
		t.Fatalf("patient B with companion should not fit: %v", err)
	}

	// A checks out: the record leaves its active state
	err := svc.Release(context.Background(), 1, func(intdb.Tx, models.Trip) error {
		store.consumed--
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if available, _ := svc.AvailableSeats(context.Background(), 1); available != 1 {
		t.Fatalf("expected 1 available seat after checkout, got %d", available)
	}
	if _, err := svc.Reserve(context.Background(), 1, 2, claim(2)); !domain.IsCapacity(err) {
		t.Fatalf("patient B should still not fit in 1 seat: %v", err)
	}
	if _, err := svc.Reserve(context.Background(), 1, 1, claim(1)); err != nil {
		t.Fatalf("patient C should be confirmed: %v", err)
	}
	if available, _ := svc.AvailableSeats(context.Background(), 1); available != 0 {
		t.Fatalf("expected 0 available seats, got %d", available)
	}
}

func TestAvailableSeatsNeverNegative(t *testing.T) {
	store := &memTripStore{seatsTotal: 2, consumed: 3}
	svc := memLedger(store)

	available, err := svc.AvailableSeats(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected clamped 0, got %d", available)
	}
}
