package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// MemoryBookingRepo keeps bookings in memory.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]model.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]model.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, b model.Booking) (model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bookings[b.ID] = b
	return b, nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (model.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	return b, ok, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *MemoryBookingRepo) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Booking{}
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryBookingRepo) UpdateStatus(_ context.Context, id string, from []string, status, paymentStatus string) (model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if !slices.Contains(from, b.Status) {
		return model.Booking{}, fmt.Errorf("booking is already %s: %w", b.Status, ErrNotBookable)
	}
	b.Status = status
	if paymentStatus != "" {
		b.PaymentStatus = paymentStatus
	}
	b.UpdatedAt = time.Now().UTC()
	r.bookings[id] = b
	return b, nil
}
