package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "medtransport/internal/config"
	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
)

type TripRepo struct {
	DB *sql.DB
}

func (r TripRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, destination, departure_at, return_at, seats_total, vehicle_id, driver_id, status, version, created_at`

func scanTrip(row *sql.Row) (models.Trip, error) {
	var t models.Trip
	var returnAt sql.NullTime
	var status string
	err := row.Scan(&t.ID, &t.Destination, &t.DepartureAt, &returnAt, &t.SeatsTotal,
		&t.VehicleID, &t.DriverID, &status, &t.Version, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if returnAt.Valid {
		v := returnAt.Time
		t.ReturnAt = &v
	}
	t.Status = models.TripStatus(status)
	return t, nil
}

func (r TripRepo) CreateTrip(ctx context.Context, t models.Trip) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO trips (destination, departure_at, return_at, seats_total, vehicle_id, driver_id, status, version, created_at)
		VALUES (?,?,?,?,?,?,?,0,?)`,
		t.Destination, t.DepartureAt, nullTime(t.ReturnAt), t.SeatsTotal,
		t.VehicleID, t.DriverID, string(t.Status), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTrip reads through q so the ledger can re-read inside its transaction.
func (r TripRepo) GetTrip(ctx context.Context, q intdb.Execer, tripID int64) (models.Trip, error) {
	if q == nil {
		q = r.db()
	}
	t, err := scanTrip(q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=?`, tripID))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "trip", Err: err}
	}
	return t, err
}

func (r TripRepo) ListTrips(ctx context.Context) ([]models.Trip, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY departure_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		var t models.Trip
		var returnAt sql.NullTime
		var status string
		if err := rows.Scan(&t.ID, &t.Destination, &t.DepartureAt, &returnAt, &t.SeatsTotal,
			&t.VehicleID, &t.DriverID, &status, &t.Version, &t.CreatedAt); err != nil {
			return out, err
		}
		if returnAt.Valid {
			v := returnAt.Time
			t.ReturnAt = &v
		}
		t.Status = models.TripStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatus bumps version alongside the status write, so a seat reserve
// that read the old status fails its optimistic check and re-reads.
func (r TripRepo) UpdateStatus(ctx context.Context, tripID int64, status models.TripStatus) error {
	res, err := r.db().ExecContext(ctx, `UPDATE trips SET status=?, version=version+1 WHERE id=?`,
		string(status), tripID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// UpdateAssignment bumps version for the same reason as UpdateStatus: an
// in-flight admission must not commit against a vehicle it never guarded.
func (r TripRepo) UpdateAssignment(ctx context.Context, tripID, vehicleID, driverID int64) error {
	res, err := r.db().ExecContext(ctx, `UPDATE trips SET vehicle_id=?, driver_id=?, version=version+1 WHERE id=?`,
		vehicleID, driverID, tripID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// BumpVersion is the optimistic check behind every seat-affecting write:
// it only succeeds when nobody moved the trip since version was read.
func (r TripRepo) BumpVersion(ctx context.Context, q intdb.Execer, tripID, version int64) (bool, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `UPDATE trips SET version=version+1 WHERE id=? AND version=?`,
		tripID, version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ActiveSeats sums seats held by records that still consume capacity.
func (r TripRepo) ActiveSeats(ctx context.Context, q intdb.Execer, tripID int64) (int, error) {
	if q == nil {
		q = r.db()
	}
	var total sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(seats_claimed), 0)
		FROM patient_trip_records
		WHERE trip_id=? AND state IN (?, ?)`,
		tripID, string(models.RecordConfirmed), string(models.RecordCheckedIn)).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
