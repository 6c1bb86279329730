package repositories

import (
	"database/sql"

	intdb "medtransport/internal/db"
)

// EnsureSchema creates the engine's tables when missing. Fleet tables are
// included so a fresh database can serve the guard's reads immediately.
func EnsureSchema(db *sql.DB) error {
	ddls := map[string]string{
		"trips": `
CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	destination VARCHAR(255) NOT NULL,
	departure_at DATETIME NOT NULL,
	return_at DATETIME NULL,
	seats_total INT NOT NULL,
	vehicle_id BIGINT NOT NULL,
	driver_id BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_departure (departure_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		"patient_trip_records": `
CREATE TABLE IF NOT EXISTS patient_trip_records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	patient_id BIGINT NOT NULL,
	patient_name VARCHAR(255) NOT NULL DEFAULT '',
	has_companion TINYINT(1) NOT NULL DEFAULT 0,
	has_special_needs TINYINT(1) NOT NULL DEFAULT 0,
	seats_claimed INT NOT NULL,
	state VARCHAR(20) NOT NULL,
	checkin_at DATETIME NULL,
	checkin_lat DOUBLE NULL,
	checkin_lng DOUBLE NULL,
	checkin_accuracy_m DOUBLE NULL,
	checkout_at DATETIME NULL,
	checkout_notes TEXT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_trip_state (trip_id, state),
	-- not UNIQUE: cancelled history keeps the pair; one-live-record-per-pair
	-- is enforced inside the admission transaction under the trip lock
	KEY idx_trip_patient (trip_id, patient_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		"waitlist_entries": `
CREATE TABLE IF NOT EXISTS waitlist_entries (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	record_id BIGINT NOT NULL,
	patient_id BIGINT NOT NULL,
	patient_name VARCHAR(255) NOT NULL DEFAULT '',
	priority VARCHAR(10) NOT NULL DEFAULT 'normal',
	has_companion TINYINT(1) NOT NULL DEFAULT 0,
	has_special_needs TINYINT(1) NOT NULL DEFAULT 0,
	requested_seats INT NOT NULL,
	created_at DATETIME NOT NULL,
	KEY idx_trip (trip_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		"vehicles": `
CREATE TABLE IF NOT EXISTS vehicles (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	plate_number VARCHAR(50) NOT NULL,
	capacity INT NOT NULL DEFAULT 0,
	operational_status VARCHAR(20) NOT NULL DEFAULT 'available',
	odometer_km BIGINT NOT NULL DEFAULT 0,
	maintenance_due_km BIGINT NOT NULL DEFAULT 0,
	next_maintenance_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		"drivers": `
CREATE TABLE IF NOT EXISTS drivers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	phone VARCHAR(100) NOT NULL DEFAULT '',
	license_number VARCHAR(100) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'active',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for table, ddl := range ddls {
		if intdb.HasTable(db, table) {
			continue
		}
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
