package repositories

import (
	"context"
	"testing"

	"medtransport/internal/domain"
	"medtransport/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestActiveSeatsSumsOnlySeatedStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(seats_claimed\\), 0\\)").
		WithArgs(int64(1), "confirmed", "checked_in").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(3))

	repo := TripRepo{DB: db}
	got, err := repo.ActiveSeats(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("active seats failed: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3 seats in use, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBumpVersionHitAndMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE trips SET version=version\\+1").
		WithArgs(int64(1), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE trips SET version=version\\+1").
		WithArgs(int64(1), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := TripRepo{DB: db}

	ok, err := repo.BumpVersion(context.Background(), nil, 1, 4)
	if err != nil || !ok {
		t.Fatalf("expected version bump to land, ok=%v err=%v", ok, err)
	}

	ok, err = repo.BumpVersion(context.Background(), nil, 1, 4)
	if err != nil {
		t.Fatalf("stale bump should not error: %v", err)
	}
	if ok {
		t.Fatal("stale version must not bump")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatusUpdateBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// the version bump makes an in-flight reserve's optimistic check miss,
	// so it re-reads and sees the new status
	mock.ExpectExec("UPDATE trips SET status=\\?, version=version\\+1").
		WithArgs("cancelled", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := TripRepo{DB: db}
	if err := repo.UpdateStatus(context.Background(), 1, models.TripCancelled); err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignmentUpdateBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE trips SET vehicle_id=\\?, driver_id=\\?, version=version\\+1").
		WithArgs(int64(4), int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := TripRepo{DB: db}
	if err := repo.UpdateAssignment(context.Background(), 1, 4, 5); err != nil {
		t.Fatalf("assignment update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTripMissingMapsToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id=").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "destination", "departure_at", "return_at", "seats_total",
			"vehicle_id", "driver_id", "status", "version", "created_at",
		}))

	repo := TripRepo{DB: db}
	_, err = repo.GetTrip(context.Background(), nil, 99)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
