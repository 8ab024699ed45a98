package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// VehicleRepo reads vehicle reference data from the vehicles table.  The
// booking core never writes vehicles except through UpsertVehicle, which
// the server uses to seed reference data at startup.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the given DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// GetVehicle retrieves a vehicle by ID.
func (r *VehicleRepo) GetVehicle(ctx context.Context, id string) (model.Vehicle, error) {
	const q = `SELECT id, operator_id, name, vehicle_type, seat_class, seat_capacity
	           FROM vehicles
	           WHERE id = ?`
	var (
		v        model.Vehicle
		capacity sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.OperatorID, &v.Name, &v.Type, &v.SeatClass, &capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vehicle{}, ErrVehicleNotFound
		}
		return model.Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	if capacity.Valid {
		c := uint32(capacity.Int64)
		v.SeatCapacity = &c
	}
	return v, nil
}

// UpsertVehicle inserts a vehicle or refreshes its attributes.
func (r *VehicleRepo) UpsertVehicle(ctx context.Context, v model.Vehicle) error {
	const q = `INSERT INTO vehicles (id, operator_id, name, vehicle_type, seat_class, seat_capacity)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE operator_id = VALUES(operator_id), name = VALUES(name),
	               vehicle_type = VALUES(vehicle_type), seat_class = VALUES(seat_class),
	               seat_capacity = VALUES(seat_capacity)`
	var capacity sql.NullInt64
	if v.SeatCapacity != nil {
		capacity = sql.NullInt64{Int64: int64(*v.SeatCapacity), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, q, v.ID, v.OperatorID, v.Name, v.Type, v.SeatClass, capacity); err != nil {
		return fmt.Errorf("upsert vehicle: %w", err)
	}
	return nil
}
