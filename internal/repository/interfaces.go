package repository

import (
	"context"
	"time"

	"github.com/iliyamo/eventhub/internal/model"
)

// EventStore is the event record store. Absence on reads is reported with
// ok=false rather than an error.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (model.Event, error)
	GetByID(ctx context.Context, id string) (model.Event, bool, error)
	Update(ctx context.Context, id string, patch model.EventPatch) (model.Event, bool, error)
	// UpdateChecked is Update with check run on the merged record while the
	// record is locked; a non-nil error from check aborts the write.
	UpdateChecked(ctx context.Context, id string, patch model.EventPatch, check func(merged model.Event) error) (model.Event, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]model.Event, error)

	// ReserveSeats checks status and remaining seats and increments
	// BookedSeats as one atomic step. It returns ErrNotFound,
	// ErrNotBookable or ErrCapacityExceeded when the check fails.
	ReserveSeats(ctx context.Context, id string, seats int, now time.Time) (model.Event, error)
	// ReleaseSeats decrements BookedSeats, never below zero.
	ReleaseSeats(ctx context.Context, id string, seats int) (model.Event, error)
}

// UserStore persists user accounts keyed by id and lower-cased email.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, bool, error)
	GetByID(ctx context.Context, id string) (model.User, bool, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	Create(ctx context.Context, b model.Booking) (model.Booking, error)
	GetByID(ctx context.Context, id string) (model.Booking, bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	// UpdateStatus moves a booking whose current status is one of from to
	// status as one atomic step. An empty paymentStatus leaves the payment
	// untouched. A booking in any other status yields ErrNotBookable.
	UpdateStatus(ctx context.Context, id string, from []string, status, paymentStatus string) (model.Booking, error)
}

// TokenStore persists and validates refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owning user id of a non-revoked,
	// non-expired token or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	// RevokeByHash returns ErrNotFound when the token was already revoked.
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
