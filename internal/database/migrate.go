package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
//
// booked_seat_key is NULL unless the row is booked, and MySQL allows any
// number of NULLs under a unique index, so uq_reservations_booked_seat
// admits exactly one booked row per (vehicle, date, seat) while keeping
// any number of cancelled or completed ones.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id            VARCHAR(64)  NOT NULL,
		operator_id   VARCHAR(64)  NOT NULL,
		name          VARCHAR(255) NOT NULL,
		vehicle_type  VARCHAR(64)  NOT NULL,
		seat_class    VARCHAR(32)  NOT NULL,
		seat_capacity INT UNSIGNED NULL,
		created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		KEY idx_vehicles_operator (operator_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id              CHAR(36)     NOT NULL,
		vehicle_id      VARCHAR(64)  NOT NULL,
		service_date    DATE         NOT NULL,
		seat_id         VARCHAR(32)  CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		passenger_name  VARCHAR(120) NOT NULL,
		passenger_phone VARCHAR(20)  NOT NULL,
		boarding_point  VARCHAR(120) NULL,
		dropping_point  VARCHAR(120) NULL,
		amount_cents    INT UNSIGNED NOT NULL DEFAULT 0,
		status          ENUM('booked','cancelled','completed') NOT NULL,
		party_id        VARCHAR(64)  NULL,
		operator_id     VARCHAR(64)  NOT NULL,
		vehicle_name    VARCHAR(255) NOT NULL,
		vehicle_type    VARCHAR(64)  NOT NULL,
		created_at      DATETIME(6)  NOT NULL,
		updated_at      DATETIME(6)  NOT NULL,
		booked_seat_key VARCHAR(200) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin
			GENERATED ALWAYS AS (IF(status = 'booked', CONCAT(vehicle_id, '|', service_date, '|', seat_id), NULL)) STORED,
		PRIMARY KEY (id),
		UNIQUE KEY uq_reservations_booked_seat (booked_seat_key),
		KEY idx_reservations_vehicle_date (vehicle_id, service_date, status),
		KEY idx_reservations_party (party_id, created_at),
		KEY idx_reservations_status_date (status, service_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the stores need.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
