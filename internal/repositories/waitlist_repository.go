package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "medtransport/internal/config"
	intdb "medtransport/internal/db"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
)

type WaitlistRepo struct {
	DB *sql.DB
}

func (r WaitlistRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const waitlistColumns = `id, trip_id, record_id, patient_id, patient_name, priority, has_companion, has_special_needs, requested_seats, created_at`

// priorityOrder keeps tier ordering in SQL so listing and promotion read the
// queue the same way: high before medium before normal, FIFO within a tier.
const priorityOrder = `FIELD(priority, 'high', 'medium', 'normal'), created_at ASC, id ASC`

// InsertEntry writes through q so an automatic waitlist placement lands in
// the same transaction as its waitlisted record.
func (r WaitlistRepo) InsertEntry(ctx context.Context, q intdb.Execer, e models.WaitlistEntry) (int64, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO waitlist_entries
			(trip_id, record_id, patient_id, patient_name, priority, has_companion, has_special_needs, requested_seats, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		e.TripID, e.RecordID, e.PatientID, e.PatientName, string(e.Priority),
		e.HasCompanion, e.HasSpecialNeeds, e.RequestedSeats, e.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByTrip returns the trip's queue in promotion order.
func (r WaitlistRepo) ListByTrip(ctx context.Context, q intdb.Execer, tripID int64) ([]models.WaitlistEntry, error) {
	if q == nil {
		q = r.db()
	}
	rows, err := q.QueryContext(ctx, `
		SELECT `+waitlistColumns+`
		FROM waitlist_entries
		WHERE trip_id=?
		ORDER BY `+priorityOrder, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WaitlistEntry{}
	for rows.Next() {
		var e models.WaitlistEntry
		var priority string
		if err := rows.Scan(&e.ID, &e.TripID, &e.RecordID, &e.PatientID, &e.PatientName, &priority,
			&e.HasCompanion, &e.HasSpecialNeeds, &e.RequestedSeats, &e.CreatedAt); err != nil {
			return out, err
		}
		e.Priority = models.WaitlistPriority(priority)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r WaitlistRepo) GetEntry(ctx context.Context, tripID, entryID int64) (models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	var priority string
	err := r.db().QueryRowContext(ctx, `
		SELECT `+waitlistColumns+`
		FROM waitlist_entries
		WHERE id=? AND trip_id=?`, entryID, tripID).
		Scan(&e.ID, &e.TripID, &e.RecordID, &e.PatientID, &e.PatientName, &priority,
			&e.HasCompanion, &e.HasSpecialNeeds, &e.RequestedSeats, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, domain.NotFoundError{Resource: "waitlist entry", Err: err}
	}
	if err != nil {
		return e, err
	}
	e.Priority = models.WaitlistPriority(priority)
	return e, nil
}

func (r WaitlistRepo) DeleteEntry(ctx context.Context, q intdb.Execer, entryID int64) (bool, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE id=?`, entryID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Position counts entries ranked ahead of the given entry, for the 202
// response after an automatic waitlist insertion.
func (r WaitlistRepo) Position(ctx context.Context, q intdb.Execer, tripID, entryID int64) (int, error) {
	entries, err := r.ListByTrip(ctx, q, tripID)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.ID == entryID {
			return i + 1, nil
		}
	}
	return 0, domain.NotFoundError{Resource: "waitlist entry"}
}
