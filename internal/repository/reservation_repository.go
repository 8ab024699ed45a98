package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// bookedSeatIndex is the unique index over the generated booked_seat_key
// column; see database.Migrate.
const bookedSeatIndex = "uq_reservations_booked_seat"

// ReservationRepo stores reservations in MySQL.  All timestamp fields are
// stored in UTC.  The booked_seat_key generated column is non-NULL only for
// booked rows and carries a unique index, so the database itself refuses a
// second booked reservation for the same triple.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, vehicle_id, service_date, seat_id, passenger_name, passenger_phone,
	boarding_point, dropping_point, amount_cents, status, party_id, operator_id,
	vehicle_name, vehicle_type, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		r                  model.Reservation
		boarding, dropping sql.NullString
		party              sql.NullString
		status             string
	)
	err := row.Scan(
		&r.ID, &r.VehicleID, &r.ServiceDate, &r.SeatID, &r.PassengerName, &r.PassengerPhone,
		&boarding, &dropping, &r.AmountCents, &status, &party, &r.OperatorID,
		&r.VehicleName, &r.VehicleType, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	r.Status = model.Status(status)
	r.BoardingPoint = boarding.String
	r.DroppingPoint = dropping.String
	r.PartyID = party.String
	return r, nil
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Insert writes a new reservation row.  A unique-index violation on the
// booked triple is reported as ErrSeatTaken.
func (r *ReservationRepo) Insert(ctx context.Context, res model.Reservation) error {
	const q = `INSERT INTO reservations (` + reservationColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.VehicleID, res.ServiceDate, res.SeatID, res.PassengerName, res.PassengerPhone,
		nullable(res.BoardingPoint), nullable(res.DroppingPoint), res.AmountCents, string(res.Status),
		nullable(res.PartyID), res.OperatorID, res.VehicleName, res.VehicleType,
		res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			if strings.Contains(me.Message, bookedSeatIndex) {
				return ErrSeatTaken
			}
			return ErrDuplicateID
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// Get retrieves a reservation by ID.
func (r *ReservationRepo) Get(ctx context.Context, id string) (model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// ListBooked returns booked reservations for a vehicle and service date,
// ordered by seat.  Served by idx_reservations_vehicle_date.
func (r *ReservationRepo) ListBooked(ctx context.Context, vehicleID string, date model.ServiceDate) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
	      FROM reservations
	      WHERE vehicle_id = ? AND service_date = ? AND status = 'booked'
	      ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, vehicleID, date)
	if err != nil {
		return nil, fmt.Errorf("list booked: %w", err)
	}
	return scanReservations(rows)
}

// ListByParty returns a party's reservations newest first.  When status is
// non-nil only reservations in that status are returned.
func (r *ReservationRepo) ListByParty(ctx context.Context, partyID string, status *model.Status) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE party_id = ?`
	args := []any{partyID}
	if status != nil {
		q += ` AND status = ?`
		args = append(args, string(*status))
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list by party: %w", err)
	}
	return scanReservations(rows)
}

// UpdateStatus performs a conditional status change.  The WHERE clause on
// the current status makes concurrent transitions mutually exclusive: only
// one UPDATE can match the row in status from.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), at.UTC(), id, string(from))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrSeatTaken
		}
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 1 {
		return nil
	}
	// Nothing matched: either the row is gone or its status moved on.
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return ErrStatusMismatch
}

// Delete removes a reservation row.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListBookedBefore returns booked reservations whose service date is
// strictly earlier than date.
func (r *ReservationRepo) ListBookedBefore(ctx context.Context, date model.ServiceDate) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
	      FROM reservations
	      WHERE status = 'booked' AND service_date < ?
	      ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, fmt.Errorf("list booked before: %w", err)
	}
	return scanReservations(rows)
}

// ListDuplicateBooked returns, for every triple held by more than one
// booked row, the rows oldest first.  With the unique index in place this
// is always empty; it exists for databases restored from dumps taken
// before the index, and mirrors the in-memory store.
func (r *ReservationRepo) ListDuplicateBooked(ctx context.Context) ([][]model.Reservation, error) {
	const q = `SELECT r.id, r.vehicle_id, r.service_date, r.seat_id, r.passenger_name, r.passenger_phone,
	                  r.boarding_point, r.dropping_point, r.amount_cents, r.status, r.party_id, r.operator_id,
	                  r.vehicle_name, r.vehicle_type, r.created_at, r.updated_at
	           FROM reservations r
	           JOIN (SELECT vehicle_id, service_date, seat_id
	                 FROM reservations
	                 WHERE status = 'booked'
	                 GROUP BY vehicle_id, service_date, seat_id
	                 HAVING COUNT(*) > 1) d
	             ON r.vehicle_id = d.vehicle_id AND r.service_date = d.service_date AND r.seat_id = d.seat_id
	           WHERE r.status = 'booked'
	           ORDER BY r.vehicle_id, r.service_date, r.seat_id, r.created_at, r.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list duplicate booked: %w", err)
	}
	flat, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	out := [][]model.Reservation{}
	for _, res := range flat {
		n := len(out)
		if n > 0 && out[n-1][0].Key() == res.Key() {
			out[n-1] = append(out[n-1], res)
			continue
		}
		out = append(out, []model.Reservation{res})
	}
	return out, nil
}
