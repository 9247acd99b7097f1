// Package queue publishes and consumes booking events over RabbitMQ.
package queue

// BookingQueueName is the durable queue booking confirmations are sent to.
const BookingQueueName = "booking.confirmed"

// BookingConfirmedEvent is published when a booking is confirmed.  It carries
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary store.
type BookingConfirmedEvent struct {
	BookingID   string  `json:"bookingId"`
	UserID      string  `json:"userId"`
	UserEmail   string  `json:"userEmail"`
	EventID     string  `json:"eventId"`
	EventTitle  string  `json:"eventTitle"`
	City        string  `json:"city"`
	EventDate   string  `json:"eventDate"`
	Seats       int     `json:"seats"`
	TotalPrice  float64 `json:"totalPrice"`
	ConfirmedAt string  `json:"confirmedAt"`
}
