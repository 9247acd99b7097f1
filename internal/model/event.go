package model

import "time"

// EventStatus is the lifecycle label derived from an event's date and seat
// counts.  It is computed on every read and never persisted.
type EventStatus string

const (
	StatusUpcoming     EventStatus = "upcoming"
	StatusStartingSoon EventStatus = "starting-soon"
	StatusSoldOut      EventStatus = "sold-out"
	StatusPast         EventStatus = "past"
)

// StartingSoonWindow is how close to its start an event must be to be
// reported as starting-soon.  The bound is inclusive.
const StartingSoonWindow = 24 * time.Hour

// Event represents a bookable occurrence.  Capacity holds the total number
// of seats configured for the event; the remaining seats are derived by
// AvailableSeats.
//
// Fields:
//  ID          – immutable identifier.
//  Title       – display title.
//  Description – free text description.
//  Category    – free text label (e.g. Music, Technology).
//  City        – city the event takes place in.
//  Address     – street address (optional).
//  ImageURL    – cover image reference.
//  Date        – start date-time in UTC.
//  Capacity    – total seats.
//  BookedSeats – seats already committed through bookings.
//  Price       – price per ticket; 0 means free.
//  Organizer   – id of the organizing user.
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          string
	Title       string
	Description string
	Category    string
	City        string
	Address     string
	ImageURL    string
	Date        time.Time
	Capacity    int
	BookedSeats int
	Price       float64
	Organizer   string
	CreatedAt   time.Time
}

// EventPatch carries a partial update.  Nil fields are left untouched.
type EventPatch struct {
	Title       *string
	Description *string
	Category    *string
	City        *string
	Address     *string
	ImageURL    *string
	Date        *time.Time
	Capacity    *int
	BookedSeats *int
	Price       *float64
}

// Apply merges the non-nil fields of p onto e and returns the result.  No
// invariant is checked here.
func (p EventPatch) Apply(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.City != nil {
		e.City = *p.City
	}
	if p.Address != nil {
		e.Address = *p.Address
	}
	if p.ImageURL != nil {
		e.ImageURL = *p.ImageURL
	}
	if p.Date != nil {
		e.Date = p.Date.UTC()
	}
	if p.Capacity != nil {
		e.Capacity = *p.Capacity
	}
	if p.BookedSeats != nil {
		e.BookedSeats = *p.BookedSeats
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	return e
}

// AvailableSeats returns the seats still open for booking.  It never goes
// below zero even when BookedSeats exceeds Capacity.
func AvailableSeats(e Event) int {
	if rem := e.Capacity - e.BookedSeats; rem > 0 {
		return rem
	}
	return 0
}

// StatusAt derives the event status relative to now.  Precedence is
// past, then sold-out, then starting-soon, then upcoming.
func StatusAt(e Event, now time.Time) EventStatus {
	if e.Date.Before(now) {
		return StatusPast
	}
	if e.BookedSeats >= e.Capacity {
		return StatusSoldOut
	}
	if e.Date.Sub(now) <= StartingSoonWindow {
		return StatusStartingSoon
	}
	return StatusUpcoming
}

// Bookable reports whether new bookings may be taken for the status.
func (s EventStatus) Bookable() bool {
	return s != StatusPast && s != StatusSoldOut
}
