package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "medtransport/internal/config"
	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
)

type VehicleRepo struct {
	DB *sql.DB
}

func (r VehicleRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const vehicleColumns = `id, name, plate_number, capacity, operational_status, odometer_km, maintenance_due_km, next_maintenance_at, created_at`

func (r VehicleRepo) GetVehicle(ctx context.Context, vehicleID int64) (models.Vehicle, error) {
	var v models.Vehicle
	var status string
	var nextMaint sql.NullTime
	err := r.db().QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=?`, vehicleID).
		Scan(&v.ID, &v.Name, &v.PlateNumber, &v.Capacity, &status,
			&v.OdometerKm, &v.MaintenanceDueKm, &nextMaint, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return v, domain.NotFoundError{Resource: "vehicle", Err: err}
	}
	if err != nil {
		return v, err
	}
	v.OperationalStatus = models.VehicleStatus(status)
	if nextMaint.Valid {
		t := nextMaint.Time
		v.NextMaintenanceAt = &t
	}
	return v, nil
}

func (r VehicleRepo) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Vehicle{}
	for rows.Next() {
		var v models.Vehicle
		var status string
		var nextMaint sql.NullTime
		if err := rows.Scan(&v.ID, &v.Name, &v.PlateNumber, &v.Capacity, &status,
			&v.OdometerKm, &v.MaintenanceDueKm, &nextMaint, &v.CreatedAt); err != nil {
			return out, err
		}
		v.OperationalStatus = models.VehicleStatus(status)
		if nextMaint.Valid {
			t := nextMaint.Time
			v.NextMaintenanceAt = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r VehicleRepo) UpdateStatus(ctx context.Context, vehicleID int64, status models.VehicleStatus) error {
	res, err := r.db().ExecContext(ctx, `UPDATE vehicles SET operational_status=? WHERE id=?`,
		string(status), vehicleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "vehicle"}
	}
	return nil
}

type DriverRepo struct {
	DB *sql.DB
}

func (r DriverRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const driverColumns = `id, name, phone, license_number, status, created_at`

func (r DriverRepo) GetDriver(ctx context.Context, driverID int64) (models.Driver, error) {
	var d models.Driver
	var status string
	err := r.db().QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=?`, driverID).
		Scan(&d.ID, &d.Name, &d.Phone, &d.LicenseNumber, &status, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return d, domain.NotFoundError{Resource: "driver", Err: err}
	}
	if err != nil {
		return d, err
	}
	d.Status = models.DriverStatus(status)
	return d, nil
}

func (r DriverRepo) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Driver{}
	for rows.Next() {
		var d models.Driver
		var status string
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.LicenseNumber, &status, &d.CreatedAt); err != nil {
			return out, err
		}
		d.Status = models.DriverStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r DriverRepo) UpdateStatus(ctx context.Context, driverID int64, status models.DriverStatus) error {
	res, err := r.db().ExecContext(ctx, `UPDATE drivers SET status=? WHERE id=?`,
		string(status), driverID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "driver"}
	}
	return nil
}
