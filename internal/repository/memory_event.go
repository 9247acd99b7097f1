package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// MemoryEventRepo keeps events in process memory. The map gives O(1) id
// lookups while order preserves insertion order for List. All methods are
// safe for concurrent use and return copies, so callers never alias the
// stored records.
type MemoryEventRepo struct {
	mu     sync.RWMutex
	events map[string]model.Event
	order  []string
	now    func() time.Time
}

// NewMemoryEventRepo returns an empty store seeded with the given events.
// Seed events keep their ids and timestamps.
func NewMemoryEventRepo(seed ...model.Event) *MemoryEventRepo {
	r := &MemoryEventRepo{
		events: make(map[string]model.Event, len(seed)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, e := range seed {
		r.events[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	return r
}

// Create assigns a fresh id when none is set, stamps CreatedAt and appends
// the event. BookedSeats always starts at zero.
func (r *MemoryEventRepo) Create(_ context.Context, e model.Event) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if _, exists := r.events[e.ID]; exists {
		return model.Event{}, fmt.Errorf("event %s: %w", e.ID, ErrAlreadyExists)
	}
	e.BookedSeats = 0
	e.Date = e.Date.UTC()
	e.CreatedAt = r.now()
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
	return e, nil
}

// Insert stores a fully populated event as is. An existing id is kept.
func (r *MemoryEventRepo) Insert(_ context.Context, e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[e.ID]; exists {
		return nil
	}
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
	return nil
}

func (r *MemoryEventRepo) GetByID(_ context.Context, id string) (model.Event, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	return e, ok, nil
}

// Update merges the patch onto the stored record. Concurrent updates of the
// same id are last-write-wins.
func (r *MemoryEventRepo) Update(ctx context.Context, id string, patch model.EventPatch) (model.Event, bool, error) {
	return r.UpdateChecked(ctx, id, patch, nil)
}

// UpdateChecked runs check under the write lock, so no reservation can land
// between the check and the write.
func (r *MemoryEventRepo) UpdateChecked(_ context.Context, id string, patch model.EventPatch, check func(model.Event) error) (model.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return model.Event{}, false, nil
	}
	e = patch.Apply(e)
	if check != nil {
		if err := check(e); err != nil {
			return model.Event{}, true, err
		}
	}
	r.events[id] = e
	return e, true, nil
}

func (r *MemoryEventRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// List returns a snapshot of all events in insertion order.
func (r *MemoryEventRepo) List(_ context.Context) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Event, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.events[id])
	}
	return out, nil
}

// ReserveSeats runs the availability check and the increment under the
// write lock so two bookings can never both take the last seats.
func (r *MemoryEventRepo) ReserveSeats(_ context.Context, id string, seats int, now time.Time) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err := checkReservable(e, seats, now); err != nil {
		return e, err
	}
	e.BookedSeats += seats
	r.events[id] = e
	return e, nil
}

func (r *MemoryEventRepo) ReleaseSeats(_ context.Context, id string, seats int) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	e.BookedSeats -= seats
	if e.BookedSeats < 0 {
		e.BookedSeats = 0
	}
	r.events[id] = e
	return e, nil
}

// checkReservable is shared by every EventStore implementation.
func checkReservable(e model.Event, seats int, now time.Time) error {
	if st := model.StatusAt(e, now); !st.Bookable() {
		return fmt.Errorf("event %s is %s: %w", e.ID, st, ErrNotBookable)
	}
	if avail := model.AvailableSeats(e); seats > avail {
		return fmt.Errorf("requested %d seats, %d available: %w", seats, avail, ErrCapacityExceeded)
	}
	return nil
}
