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

type RecordRepo struct {
	DB *sql.DB
}

func (r RecordRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const recordColumns = `id, trip_id, patient_id, patient_name, has_companion, has_special_needs,
	seats_claimed, state, checkin_at, checkin_lat, checkin_lng, checkin_accuracy_m,
	checkout_at, checkout_notes, created_at, updated_at`

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row recordScanner) (models.PatientTripRecord, error) {
	var rec models.PatientTripRecord
	var state string
	var checkinAt, checkoutAt sql.NullTime
	var lat, lng, acc sql.NullFloat64
	var notes sql.NullString

	err := row.Scan(&rec.ID, &rec.TripID, &rec.PatientID, &rec.PatientName,
		&rec.HasCompanion, &rec.HasSpecialNeeds, &rec.SeatsClaimed, &state,
		&checkinAt, &lat, &lng, &acc, &checkoutAt, &notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	rec.State = models.RecordState(state)
	if checkinAt.Valid {
		v := checkinAt.Time
		rec.CheckinAt = &v
	}
	if lat.Valid && lng.Valid {
		rec.CheckinLocation = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64, AccuracyM: acc.Float64}
	}
	if checkoutAt.Valid {
		v := checkoutAt.Time
		rec.CheckoutAt = &v
	}
	rec.CheckoutNotes = notes.String
	return rec, nil
}

// InsertRecord writes through q so admissions commit inside the ledger
// transaction that reserved their seats.
func (r RecordRepo) InsertRecord(ctx context.Context, q intdb.Execer, rec models.PatientTripRecord) (int64, error) {
	if q == nil {
		q = r.db()
	}
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, `
		INSERT INTO patient_trip_records
			(trip_id, patient_id, patient_name, has_companion, has_special_needs, seats_claimed, state, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.TripID, rec.PatientID, rec.PatientName, rec.HasCompanion, rec.HasSpecialNeeds,
		rec.SeatsClaimed, string(rec.State), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetActiveByPatient returns the patient's live record on the trip, skipping
// cancelled history so a patient can be re-admitted after a cancel.
func (r RecordRepo) GetActiveByPatient(ctx context.Context, q intdb.Execer, tripID, patientID int64) (models.PatientTripRecord, error) {
	if q == nil {
		q = r.db()
	}
	rec, err := scanRecord(q.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM patient_trip_records
		WHERE trip_id=? AND patient_id=? AND state <> ?
		ORDER BY id DESC LIMIT 1`,
		tripID, patientID, string(models.RecordCancelled)))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, domain.NotFoundError{Resource: "patient record", Err: err}
	}
	return rec, err
}

func (r RecordRepo) ListByTrip(ctx context.Context, tripID int64) ([]models.PatientTripRecord, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM patient_trip_records
		WHERE trip_id=?
		ORDER BY id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PatientTripRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateState moves a record between lifecycle states. The WHERE clause pins
// the expected current state, so a racing double transition affects zero rows.
func (r RecordRepo) UpdateState(ctx context.Context, q intdb.Execer, recordID int64, from, to models.RecordState) (bool, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		UPDATE patient_trip_records SET state=?, updated_at=? WHERE id=? AND state=?`,
		string(to), time.Now().UTC(), recordID, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r RecordRepo) MarkCheckedIn(ctx context.Context, q intdb.Execer, recordID int64, at time.Time, loc *models.GeoPoint) (bool, error) {
	if q == nil {
		q = r.db()
	}
	var lat, lng, acc any
	if loc != nil {
		lat, lng, acc = loc.Lat, loc.Lng, loc.AccuracyM
	}
	res, err := q.ExecContext(ctx, `
		UPDATE patient_trip_records
		SET state=?, checkin_at=?, checkin_lat=?, checkin_lng=?, checkin_accuracy_m=?, updated_at=?
		WHERE id=? AND state=?`,
		string(models.RecordCheckedIn), at, lat, lng, acc, time.Now().UTC(),
		recordID, string(models.RecordConfirmed))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r RecordRepo) MarkCheckedOut(ctx context.Context, q intdb.Execer, recordID int64, at time.Time, notes string) (bool, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		UPDATE patient_trip_records
		SET state=?, checkout_at=?, checkout_notes=?, updated_at=?
		WHERE id=? AND state=?`,
		string(models.RecordCheckedOut), at, intdb.NullIfEmpty(notes), time.Now().UTC(),
		recordID, string(models.RecordCheckedIn))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
