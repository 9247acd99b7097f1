package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// MySQLBookingRepo provides CRUD operations for the `bookings` table. All
// timestamp fields are stored in UTC.
type MySQLBookingRepo struct {
	db *sql.DB
}

// NewMySQLBookingRepo returns a new MySQLBookingRepo bound to the given database.
func NewMySQLBookingRepo(db *sql.DB) *MySQLBookingRepo { return &MySQLBookingRepo{db: db} }

const bookingColumns = `id, event_id, user_id, seats, total_price, status, payment_status, created_at, updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.EventID, &b.UserID, &b.Seats, &b.TotalPrice, &b.Status,
		&b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *MySQLBookingRepo) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		b.ID, b.EventID, b.UserID, b.Seats, b.TotalPrice, b.Status, b.PaymentStatus, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

func (r *MySQLBookingRepo) GetByID(ctx context.Context, id string) (model.Booking, bool, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, false, nil
	}
	if err != nil {
		return model.Booking{}, false, err
	}
	return b, true, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *MySQLBookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *MySQLBookingRepo) UpdateStatus(ctx context.Context, id string, from []string, status, paymentStatus string) (model.Booking, error) {
	if len(from) == 0 {
		return model.Booking{}, fmt.Errorf("no source status for booking %s: %w", id, ErrValidation)
	}
	args := []any{status, paymentStatus, paymentStatus, time.Now().UTC(), id}
	for _, f := range from {
		args = append(args, f)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_status = IF(? = '', payment_status, ?), updated_at = ?
		 WHERE id = ? AND status IN (?`+strings.Repeat(", ?", len(from)-1)+`)`,
		args...)
	if err != nil {
		return model.Booking{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Booking{}, err
	}
	b, ok, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if n == 0 {
		return model.Booking{}, fmt.Errorf("booking is already %s: %w", b.Status, ErrNotBookable)
	}
	return b, nil
}
