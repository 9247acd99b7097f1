package repository

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/iliyamo/eventhub/internal/model"
)

// Pagination defaults for event queries.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPage keeps (page-1)*limit inside an int.
	MaxPage = math.MaxInt / MaxPageLimit
)

// EventQuery defines filters & pagination for browsing events. Empty
// strings and nil pointers disable the corresponding filter.
type EventQuery struct {
	Category string
	City     string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Limit    int
}

// Normalize applies the paging defaults: page < 1 becomes 1, limit <= 0
// becomes DefaultPageLimit and limit is capped at MaxPageLimit. Page is
// capped at MaxPage, which is past the end of any real result set.
func (q EventQuery) Normalize() EventQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	q.Category = strings.TrimSpace(q.Category)
	q.City = strings.TrimSpace(q.City)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// offset is the index of the first item on the page. q must be normalized.
func (q EventQuery) offset() int { return (q.Page - 1) * q.Limit }

// EventPage is one page of a filtered, date-sorted event set.
type EventPage struct {
	Items      []model.Event
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func (p EventPage) HasNext() bool { return p.Page < p.TotalPages }
func (p EventPage) HasPrev() bool { return p.Page > 1 }

// Matches reports whether e passes every filter in q.
func (q EventQuery) Matches(e model.Event) bool {
	if q.Category != "" && !strings.EqualFold(q.Category, "all") && !strings.EqualFold(e.Category, q.Category) {
		return false
	}
	if q.City != "" && !strings.EqualFold(e.City, q.City) {
		return false
	}
	if q.Search != "" && !matchesSearch(e, strings.ToLower(q.Search)) {
		return false
	}
	if q.MinPrice != nil && e.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && e.Price > *q.MaxPrice {
		return false
	}
	return true
}

func matchesSearch(e model.Event, term string) bool {
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.Category), term) ||
		strings.Contains(strings.ToLower(e.City), term)
}

// FilterEvents applies q to events, sorts the matches ascending by date
// (ties broken by id) and cuts out the requested page. A page past the end
// yields an empty Items slice.
func FilterEvents(events []model.Event, q EventQuery) EventPage {
	q = q.Normalize()

	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if q.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	page := EventPage{
		Items:      []model.Event{},
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	start := q.offset()
	if q.Page > page.TotalPages || start >= total {
		return page
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	page.Items = matched[start:end]
	return page
}

// QueryEvents pages through the store's events. Stores that can search
// natively do so; otherwise a snapshot is filtered with FilterEvents.
func QueryEvents(ctx context.Context, store EventStore, q EventQuery) (EventPage, error) {
	if s, ok := store.(eventSearcher); ok {
		return s.Search(ctx, q)
	}
	events, err := store.List(ctx)
	if err != nil {
		return EventPage{}, err
	}
	return FilterEvents(events, q), nil
}

// Categories returns the distinct categories in first-seen order.
func Categories(events []model.Event) []string {
	return distinct(events, func(e model.Event) string { return e.Category })
}

// Cities returns the distinct cities in first-seen order.
func Cities(events []model.Event) []string {
	return distinct(events, func(e model.Event) string { return e.City })
}

func distinct(events []model.Event, key func(model.Event) string) []string {
	seen := make(map[string]struct{}, len(events))
	out := []string{}
	for _, e := range events {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
