package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// MySQLEventRepo stores events in the `events` table. Seat reservation runs
// inside a transaction holding a row lock, so the availability check and
// the increment cannot interleave with another booking.
type MySQLEventRepo struct {
	db *sql.DB
}

// NewMySQLEventRepo returns a new MySQLEventRepo bound to the given database.
func NewMySQLEventRepo(db *sql.DB) *MySQLEventRepo { return &MySQLEventRepo{db: db} }

const eventColumns = `id, title, description, category, city, address, image_url, starts_at, capacity, booked_seats, price, organizer, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (model.Event, error) {
	var e model.Event
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.City, &e.Address,
		&e.ImageURL, &e.Date, &e.Capacity, &e.BookedSeats, &e.Price, &e.Organizer, &e.CreatedAt)
	return e, err
}

func (r *MySQLEventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.BookedSeats = 0
	e.Date = e.Date.UTC()
	e.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Description, e.Category, e.City, e.Address, e.ImageURL,
		e.Date, e.Capacity, e.BookedSeats, e.Price, e.Organizer, e.CreatedAt)
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// Insert writes a fully populated event, keeping its id, counters and
// timestamps. It is used to seed an empty table.
func (r *MySQLEventRepo) Insert(ctx context.Context, e model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO events (`+eventColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Description, e.Category, e.City, e.Address, e.ImageURL,
		e.Date, e.Capacity, e.BookedSeats, e.Price, e.Organizer, e.CreatedAt)
	return err
}

func (r *MySQLEventRepo) GetByID(ctx context.Context, id string) (model.Event, bool, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, false, err
	}
	return e, true, nil
}

func (r *MySQLEventRepo) Update(ctx context.Context, id string, patch model.EventPatch) (model.Event, bool, error) {
	return r.UpdateChecked(ctx, id, patch, nil)
}

// UpdateChecked runs check inside the row-locking transaction.
func (r *MySQLEventRepo) UpdateChecked(ctx context.Context, id string, patch model.EventPatch, check func(model.Event) error) (model.Event, bool, error) {
	var (
		out   model.Event
		found bool
	)
	err := r.withLockedEvent(ctx, id, func(tx *sql.Tx, e model.Event) error {
		found = true
		out = patch.Apply(e)
		if check != nil {
			if err := check(out); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE events SET title=?, description=?, category=?, city=?, address=?, image_url=?,
				starts_at=?, capacity=?, booked_seats=?, price=? WHERE id=?`,
			out.Title, out.Description, out.Category, out.City, out.Address, out.ImageURL,
			out.Date, out.Capacity, out.BookedSeats, out.Price, id)
		return err
	})
	if !found && errors.Is(err, ErrNotFound) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, found, err
	}
	return out, found, nil
}

func (r *MySQLEventRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every event in insertion order.
func (r *MySQLEventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MySQLEventRepo) ReserveSeats(ctx context.Context, id string, seats int, now time.Time) (model.Event, error) {
	var out model.Event
	err := r.withLockedEvent(ctx, id, func(tx *sql.Tx, e model.Event) error {
		if err := checkReservable(e, seats, now); err != nil {
			out = e
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET booked_seats = booked_seats + ? WHERE id = ? AND booked_seats + ? <= capacity`,
			seats, id, seats)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("event %s: %w", id, ErrCapacityExceeded)
		}
		e.BookedSeats += seats
		out = e
		return nil
	})
	return out, err
}

func (r *MySQLEventRepo) ReleaseSeats(ctx context.Context, id string, seats int) (model.Event, error) {
	var out model.Event
	err := r.withLockedEvent(ctx, id, func(tx *sql.Tx, e model.Event) error {
		e.BookedSeats -= seats
		if e.BookedSeats < 0 {
			e.BookedSeats = 0
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET booked_seats = ? WHERE id = ?`, e.BookedSeats, id); err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

// withLockedEvent loads the row with SELECT ... FOR UPDATE and runs fn in
// the same transaction. The transaction commits only when fn returns nil.
func (r *MySQLEventRepo) withLockedEvent(ctx context.Context, id string, fn func(tx *sql.Tx, e model.Event) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := fn(tx, e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
