package model

import "time"

// Booking status values.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRefunded  = "refunded"
)

// Payment status values.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Booking records a user's reservation of a number of seats for an event.
//
// Fields:
//  ID            – primary identifier.
//  EventID       – event being booked.
//  UserID        – user who made the booking.
//  Seats         – number of seats reserved.
//  TotalPrice    – amount charged for all seats.
//  Status        – pending, confirmed, cancelled or refunded.
//  PaymentStatus – pending, completed, failed or refunded.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            string
	EventID       string
	UserID        string
	Seats         int
	TotalPrice    float64
	Status        string
	PaymentStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveStatuses lists the statuses in which a booking holds seats.
func ActiveStatuses() []string { return []string{BookingPending, BookingConfirmed} }

// Active reports whether the booking still holds seats.
func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
