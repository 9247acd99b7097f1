package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/utils"
)

// Clock returns the current time.  Services take one so tests can pin now.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// CachePurger drops cached listings after an event changes.
type CachePurger interface {
	Purge(ctx context.Context)
}

// EventView is an event together with the values derived from it at read
// time.
type EventView struct {
	model.Event
	AvailableSeats int
	Status         model.EventStatus
}

// EventViewPage is one page of views plus the paging metadata.
type EventViewPage struct {
	Items      []EventView
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// EventInput is the creation form.  Organizer is taken from the caller.
type EventInput struct {
	Title       string
	Description string
	Category    string
	City        string
	Address     string
	ImageURL    string
	Date        time.Time
	Capacity    int
	Price       float64
}

// EventService manages the catalogue.
type EventService struct {
	store repository.EventStore
	cache CachePurger
	now   Clock
	log   *zap.Logger
}

// NewEventService wires the service.  cache may be nil.
func NewEventService(store repository.EventStore, cache CachePurger, now Clock, log *zap.Logger) *EventService {
	if now == nil {
		now = SystemClock
	}
	return &EventService{store: store, cache: cache, now: now, log: log}
}

func (s *EventService) view(e model.Event, now time.Time) EventView {
	return EventView{Event: e, AvailableSeats: model.AvailableSeats(e), Status: model.StatusAt(e, now)}
}

// Query runs the filter engine and decorates each hit with its status.
func (s *EventService) Query(ctx context.Context, q repository.EventQuery) (EventViewPage, error) {
	page, err := repository.QueryEvents(ctx, s.store, q)
	if err != nil {
		return EventViewPage{}, err
	}
	now := s.now()
	out := EventViewPage{
		Items:      make([]EventView, 0, len(page.Items)),
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext(),
		HasPrev:    page.HasPrev(),
	}
	for _, e := range page.Items {
		out.Items = append(out.Items, s.view(e, now))
	}
	return out, nil
}

func (s *EventService) Get(ctx context.Context, id string) (EventView, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	return s.view(e, s.now()), nil
}

func (s *EventService) Categories(ctx context.Context) ([]string, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return repository.Categories(events), nil
}

func (s *EventService) Cities(ctx context.Context) ([]string, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return repository.Cities(events), nil
}

// Create validates the form and stores a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, actor utils.Identity, in EventInput) (EventView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.City = strings.TrimSpace(in.City)
	in.Address = strings.TrimSpace(in.Address)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	var missing []string
	for _, f := range []struct{ name, v string }{
		{"title", in.Title}, {"description", in.Description}, {"category", in.Category},
		{"city", in.City}, {"imageUrl", in.ImageURL},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if in.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return EventView{}, fmt.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), repository.ErrValidation)
	}
	if in.Capacity <= 0 {
		return EventView{}, fmt.Errorf("capacity must be greater than 0: %w", repository.ErrValidation)
	}
	if in.Price < 0 {
		return EventView{}, fmt.Errorf("price cannot be negative: %w", repository.ErrValidation)
	}

	e, err := s.store.Create(ctx, model.Event{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		City:        in.City,
		Address:     in.Address,
		ImageURL:    in.ImageURL,
		Date:        in.Date,
		Capacity:    in.Capacity,
		Price:       in.Price,
		Organizer:   actor.UserID,
	})
	if err != nil {
		return EventView{}, err
	}
	s.purge(ctx)
	s.log.Info("event created", zap.String("event_id", e.ID), zap.String("organizer", e.Organizer))
	return s.view(e, s.now()), nil
}

// Update merges the patch after checking ownership and the merged record.
func (s *EventService) Update(ctx context.Context, actor utils.Identity, id string, patch model.EventPatch) (EventView, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	if err := canManage(actor, cur); err != nil {
		return EventView{}, err
	}
	// The merged record is validated under the store's lock, against the
	// booked seats at write time rather than the snapshot above.
	e, ok, err := s.store.UpdateChecked(ctx, id, patch, validateMerged)
	if err != nil {
		return EventView{}, err
	}
	if !ok {
		return EventView{}, fmt.Errorf("event not found: %w", repository.ErrNotFound)
	}
	s.purge(ctx)
	return s.view(e, s.now()), nil
}

func validateMerged(merged model.Event) error {
	switch {
	case strings.TrimSpace(merged.Title) == "":
		return fmt.Errorf("title cannot be empty: %w", repository.ErrValidation)
	case merged.Capacity <= 0:
		return fmt.Errorf("capacity must be greater than 0: %w", repository.ErrValidation)
	case merged.Capacity < merged.BookedSeats:
		return fmt.Errorf("capacity %d is below the %d seats already booked: %w",
			merged.Capacity, merged.BookedSeats, repository.ErrValidation)
	case merged.Price < 0:
		return fmt.Errorf("price cannot be negative: %w", repository.ErrValidation)
	}
	return nil
}

func (s *EventService) Delete(ctx context.Context, actor utils.Identity, id string) error {
	cur, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := canManage(actor, cur); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("event not found: %w", repository.ErrNotFound)
	}
	s.purge(ctx)
	s.log.Info("event deleted", zap.String("event_id", id), zap.String("by", actor.UserID))
	return nil
}

func (s *EventService) load(ctx context.Context, id string) (model.Event, error) {
	e, ok, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if !ok {
		return model.Event{}, fmt.Errorf("event not found: %w", repository.ErrNotFound)
	}
	return e, nil
}

func (s *EventService) purge(ctx context.Context) {
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
}

// canManage allows admins and the organizer who owns the event.
func canManage(actor utils.Identity, e model.Event) error {
	if actor.Role == model.RoleAdmin || (actor.UserID != "" && actor.UserID == e.Organizer) {
		return nil
	}
	return fmt.Errorf("not allowed to manage this event: %w", repository.ErrForbidden)
}
