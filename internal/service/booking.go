package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/queue"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/utils"
)

// priceTolerance is how far a client-computed total may drift from ours.
const priceTolerance = 0.005

// publishTimeout bounds the background broker call after a booking.
const publishTimeout = 5 * time.Second

// Publisher announces confirmed bookings.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// BookInput is a booking request.  TotalPrice is the client's own figure
// and is only checked, never trusted.
type BookInput struct {
	EventID    string
	Seats      int
	TotalPrice *float64
}

// BookingView is a booking with its event, when the event still exists.
type BookingView struct {
	model.Booking
	Event *EventView
}

// BookingService takes and manages bookings.
type BookingService struct {
	events   repository.EventStore
	bookings repository.BookingStore
	pub      Publisher
	now      Clock
	log      *zap.Logger
	cache    CachePurger
}

// NewBookingService wires the service.  pub and cache may be nil.
func NewBookingService(events repository.EventStore, bookings repository.BookingStore, pub Publisher, cache CachePurger, now Clock, log *zap.Logger) *BookingService {
	if now == nil {
		now = SystemClock
	}
	return &BookingService{events: events, bookings: bookings, pub: pub, cache: cache, now: now, log: log}
}

// Book reserves seats and records a confirmed booking.  Validation runs
// before anything is mutated; the seat check and increment happen inside
// the store as one step, and the seats are handed back if the booking
// cannot be written.
func (s *BookingService) Book(ctx context.Context, actor utils.Identity, in BookInput) (BookingView, error) {
	in.EventID = strings.TrimSpace(in.EventID)
	if in.EventID == "" {
		return BookingView{}, fmt.Errorf("event id is required: %w", repository.ErrValidation)
	}
	if in.Seats <= 0 {
		return BookingView{}, fmt.Errorf("number of seats must be greater than 0: %w", repository.ErrValidation)
	}
	if actor.UserID == "" {
		return BookingView{}, fmt.Errorf("booking requires a signed-in user: %w", repository.ErrForbidden)
	}

	// Pre-check the price so a mismatch never touches the seat counter.
	if in.TotalPrice != nil {
		e, ok, err := s.events.GetByID(ctx, in.EventID)
		if err != nil {
			return BookingView{}, err
		}
		if !ok {
			return BookingView{}, fmt.Errorf("event not found: %w", repository.ErrNotFound)
		}
		if err := checkTotal(e.Price, in.Seats, *in.TotalPrice); err != nil {
			return BookingView{}, err
		}
	}

	now := s.now()
	e, err := s.events.ReserveSeats(ctx, in.EventID, in.Seats, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return BookingView{}, fmt.Errorf("event not found: %w", repository.ErrNotFound)
		case errors.Is(err, repository.ErrNotBookable):
			return BookingView{}, fmt.Errorf("event not bookable: %w", err)
		case errors.Is(err, repository.ErrCapacityExceeded):
			return BookingView{}, fmt.Errorf("insufficient capacity: %w", err)
		}
		return BookingView{}, err
	}

	// The price may have changed between the pre-check and the reservation.
	if in.TotalPrice != nil {
		if err := checkTotal(e.Price, in.Seats, *in.TotalPrice); err != nil {
			s.release(ctx, e.ID, in.Seats)
			return BookingView{}, err
		}
	}

	payment := model.PaymentPending
	if e.Price == 0 {
		payment = model.PaymentCompleted
	}
	b, err := s.bookings.Create(ctx, model.Booking{
		EventID:       e.ID,
		UserID:        actor.UserID,
		Seats:         in.Seats,
		TotalPrice:    roundCents(e.Price * float64(in.Seats)),
		Status:        model.BookingConfirmed,
		PaymentStatus: payment,
	})
	if err != nil {
		s.release(ctx, e.ID, in.Seats)
		return BookingView{}, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking confirmed",
		zap.String("booking_id", b.ID), zap.String("event_id", e.ID),
		zap.String("user_id", actor.UserID), zap.Int("seats", b.Seats))
	s.purge(ctx)
	s.announce(ctx, actor, e, b)

	ev := EventView{Event: e, AvailableSeats: model.AvailableSeats(e), Status: model.StatusAt(e, now)}
	return BookingView{Booking: b, Event: &ev}, nil
}

// Get returns a booking visible to actor: its owner or an admin.
func (s *BookingService) Get(ctx context.Context, actor utils.Identity, id string) (BookingView, error) {
	b, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return BookingView{}, err
	}
	return s.withEvent(ctx, b, s.now())
}

// ListForUser returns the user's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]BookingView, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]BookingView, 0, len(list))
	for _, b := range list {
		v, err := s.withEvent(ctx, b, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Cancel marks the booking cancelled and returns its seats to the event.
// Bookings for events that already took place cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, actor utils.Identity, id string) (BookingView, error) {
	b, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return BookingView{}, err
	}
	if !b.Active() {
		return BookingView{}, fmt.Errorf("booking is already %s: %w", b.Status, repository.ErrNotBookable)
	}
	now := s.now()
	e, ok, err := s.events.GetByID(ctx, b.EventID)
	if err != nil {
		return BookingView{}, err
	}
	if ok && e.Date.Before(now) {
		return BookingView{}, fmt.Errorf("event already took place: %w", repository.ErrNotBookable)
	}

	payment := ""
	if b.PaymentStatus == model.PaymentCompleted && b.TotalPrice > 0 {
		payment = model.PaymentRefunded
	}
	// Only the caller that moves the booking out of an active status
	// releases its seats; a concurrent cancel gets ErrNotBookable here.
	b, err = s.bookings.UpdateStatus(ctx, b.ID, model.ActiveStatuses(), model.BookingCancelled, payment)
	if err != nil {
		return BookingView{}, err
	}
	if ok {
		s.release(ctx, b.EventID, b.Seats)
		s.purge(ctx)
	}
	s.log.Info("booking cancelled", zap.String("booking_id", b.ID), zap.String("by", actor.UserID))
	return s.withEvent(ctx, b, now)
}

func (s *BookingService) loadOwned(ctx context.Context, actor utils.Identity, id string) (model.Booking, error) {
	b, ok, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, fmt.Errorf("booking not found: %w", repository.ErrNotFound)
	}
	if actor.Role != model.RoleAdmin && actor.UserID != b.UserID {
		return model.Booking{}, fmt.Errorf("not allowed to access this booking: %w", repository.ErrForbidden)
	}
	return b, nil
}

func (s *BookingService) withEvent(ctx context.Context, b model.Booking, now time.Time) (BookingView, error) {
	e, ok, err := s.events.GetByID(ctx, b.EventID)
	if err != nil {
		return BookingView{}, err
	}
	v := BookingView{Booking: b}
	if ok {
		v.Event = &EventView{Event: e, AvailableSeats: model.AvailableSeats(e), Status: model.StatusAt(e, now)}
	}
	return v, nil
}

// release is the compensation step.  A failure here leaves seats counted
// that no booking holds, so it is logged loudly.
func (s *BookingService) release(ctx context.Context, eventID string, seats int) {
	if _, err := s.events.ReleaseSeats(context.WithoutCancel(ctx), eventID, seats); err != nil {
		s.log.Error("release seats failed",
			zap.String("event_id", eventID), zap.Int("seats", seats), zap.Error(err))
	}
}

func (s *BookingService) purge(ctx context.Context) {
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
}

// announce publishes booking.confirmed in the background.  Broker trouble
// never fails the booking.
func (s *BookingService) announce(ctx context.Context, actor utils.Identity, e model.Event, b model.Booking) {
	if s.pub == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		UserEmail:   actor.Email,
		EventID:     e.ID,
		EventTitle:  e.Title,
		City:        e.City,
		EventDate:   e.Date.UTC().Format(time.RFC3339),
		Seats:       b.Seats,
		TotalPrice:  b.TotalPrice,
		ConfirmedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.pub.PublishBookingConfirmed(pctx, ev); err != nil {
			s.log.Warn("booking event dropped", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}()
}

func checkTotal(price float64, seats int, client float64) error {
	expected := roundCents(price * float64(seats))
	if math.Abs(expected-client) > priceTolerance {
		return fmt.Errorf("total price %.2f does not match expected %.2f: %w", client, expected, repository.ErrValidation)
	}
	return nil
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }
