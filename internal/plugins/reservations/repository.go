package reservations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrZoneBooked is returned when an assigned line already overlaps the
// requested period.
var ErrZoneBooked = errors.New("zone already booked for that period")

// ReservationRepository defines persistence operations for reservations.
type ReservationRepository interface {
	CreateWithLine(ctx context.Context, r *Reservation) error
	FindByID(ctx context.Context, id int64) (*Reservation, error)
	ListLines(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	CountZoneUsage(ctx context.Context, from, to time.Time) ([]ZoneUsage, error)
}

// reservationRepo is the MariaDB implementation of ReservationRepository.
type reservationRepo struct {
	db *sql.DB
}

// NewReservationRepository creates a new MariaDB-backed reservation repository.
func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

const reservationCols = `r.id, COALESCE(r.reservation_no, ''), r.partner_name, r.partner_email,
	r.check_in, r.check_out, r.adults, r.state, r.zone_id, z.name, r.created_at`

func scanReservation(scanner interface{ Scan(...any) error }) (*Reservation, error) {
	r := &Reservation{}
	err := scanner.Scan(&r.ID, &r.ReservationNo, &r.PartnerName, &r.PartnerEmail,
		&r.CheckIn, &r.CheckOut, &r.Adults, &r.State, &r.ZoneID, &r.ZoneName, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateWithLine stores r and its assigned zone line in one transaction.
// The zone row is locked first so two concurrent bookings of the same zone
// cannot both pass the overlap check. On success r.ID and
// r.ReservationNo are set.
func (r *reservationRepo) CreateWithLine(ctx context.Context, res *Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var zoneID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM zones WHERE id = ? FOR UPDATE`, res.ZoneID,
	).Scan(&zoneID); err != nil {
		return fmt.Errorf("locking zone %d: %w", res.ZoneID, err)
	}

	var overlaps int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM zone_reservation_lines
		 WHERE zone_id = ? AND state = ? AND check_in < ? AND check_out > ?`,
		res.ZoneID, LineAssigned, res.CheckOut.UTC(), res.CheckIn.UTC(),
	).Scan(&overlaps); err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}
	if overlaps > 0 {
		return ErrZoneBooked
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (partner_name, partner_email, check_in, check_out, adults, state, zone_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.PartnerName, res.PartnerEmail, res.CheckIn.UTC(), res.CheckOut.UTC(),
		res.Adults, res.State, res.ZoneID,
	)
	if err != nil {
		return fmt.Errorf("inserting reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading reservation id: %w", err)
	}
	res.ID = id
	res.ReservationNo = FormatNumber(id)

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET reservation_no = ? WHERE id = ?`, res.ReservationNo, id,
	); err != nil {
		return fmt.Errorf("numbering reservation: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO zone_reservation_lines (zone_id, reservation_id, check_in, check_out, state)
		 VALUES (?, ?, ?, ?, ?)`,
		res.ZoneID, id, res.CheckIn.UTC(), res.CheckOut.UTC(), LineAssigned,
	); err != nil {
		return fmt.Errorf("inserting zone line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	res.CreatedAt = time.Now().UTC()
	return nil
}

// FindByID returns a reservation with its zone name.
func (r *reservationRepo) FindByID(ctx context.Context, id int64) (*Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations r JOIN zones z ON z.id = r.zone_id WHERE r.id = ?`, id))
}

// ListLines returns the assigned lines of non-cancelled reservations that
// overlap [from, to].
func (r *reservationRepo) ListLines(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.zone_id, l.reservation_id, l.check_in, l.check_out, l.state, r.state
		 FROM zone_reservation_lines l JOIN reservations r ON r.id = l.reservation_id
		 WHERE l.state = ? AND r.state <> ? AND l.check_in <= ? AND l.check_out >= ?
		 ORDER BY l.zone_id, l.check_in`,
		LineAssigned, StateCancel, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing zone lines: %w", err)
	}
	defer rows.Close()

	var lines []ZoneReservationLine
	for rows.Next() {
		var l ZoneReservationLine
		if err := rows.Scan(&l.ID, &l.ZoneID, &l.ReservationID, &l.CheckIn, &l.CheckOut,
			&l.State, &l.ReservationState); err != nil {
			return nil, fmt.Errorf("scanning zone line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListReservations returns reservations of every state inside the
// filter's ranges, ordered by check-in.
func (r *reservationRepo) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	var where []string
	var args []any
	bound := func(col, op string, t time.Time) {
		if !t.IsZero() {
			where = append(where, col+" "+op+" ?")
			args = append(args, t.UTC())
		}
	}
	bound("r.check_in", ">=", f.CheckInFrom)
	bound("r.check_in", "<=", f.CheckInTo)
	bound("r.check_out", ">=", f.CheckOutFrom)
	bound("r.check_out", "<=", f.CheckOutTo)

	query := `SELECT ` + reservationCols + ` FROM reservations r JOIN zones z ON z.id = r.zone_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY r.check_in, r.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// CountZoneUsage counts, per zone, the lines whose check-in falls in
// [from, to]. Zones without such lines are left out.
func (r *reservationRepo) CountZoneUsage(ctx context.Context, from, to time.Time) ([]ZoneUsage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT z.name, COUNT(*) FROM zone_reservation_lines l JOIN zones z ON z.id = l.zone_id
		 WHERE l.check_in >= ? AND l.check_in <= ?
		 GROUP BY z.id, z.name ORDER BY z.name`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("counting zone usage: %w", err)
	}
	defer rows.Close()

	var out []ZoneUsage
	for rows.Next() {
		var u ZoneUsage
		if err := rows.Scan(&u.ZoneName, &u.Times); err != nil {
			return nil, fmt.Errorf("scanning zone usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FormatNumber renders a reservation number like R/00042.
func FormatNumber(id int64) string {
	return fmt.Sprintf("R/%05d", id)
}
