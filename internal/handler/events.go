package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/service"
)

// EventHandler serves the catalogue endpoints.
type EventHandler struct {
	Events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{Events: events}
}

// EventResponse is the public shape of an event.
type EventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	City           string    `json:"city"`
	Address        string    `json:"address,omitempty"`
	ImageURL       string    `json:"imageUrl"`
	Date           time.Time `json:"date"`
	Capacity       int       `json:"capacity"`
	BookedSeats    int       `json:"bookedSeats"`
	AvailableSeats int       `json:"availableSeats"`
	Price          float64   `json:"price"`
	Organizer      string    `json:"organizer"`
	Status         string    `json:"status"`
	Reviews        []any     `json:"reviews"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toEventResponse(v service.EventView) EventResponse {
	return EventResponse{
		ID:             v.ID,
		Title:          v.Title,
		Description:    v.Description,
		Category:       v.Category,
		City:           v.City,
		Address:        v.Address,
		ImageURL:       v.ImageURL,
		Date:           v.Date.UTC(),
		Capacity:       v.Capacity,
		BookedSeats:    v.BookedSeats,
		AvailableSeats: v.AvailableSeats,
		Price:          v.Price,
		Organizer:      v.Organizer,
		Status:         string(v.Status),
		Reviews:        []any{}, // reviews are not stored yet
		CreatedAt:      v.CreatedAt.UTC(),
	}
}

// List handles GET /v1/events?category=&city=&search=&minPrice=&maxPrice=&page=&limit=
func (h *EventHandler) List(c echo.Context) error {
	q := repository.EventQuery{
		Category: c.QueryParam("category"),
		City:     c.QueryParam("city"),
		Search:   c.QueryParam("search"),
	}
	// Unparseable paging values fall back to the defaults.
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	var err error
	if q.MinPrice, err = floatParam(c, "minPrice"); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if q.MaxPrice, err = floatParam(c, "maxPrice"); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Events.Query(ctx, q)
	if err != nil {
		return fromError(c, err)
	}
	items := make([]EventResponse, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, toEventResponse(v))
	}
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Pagination: &Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			HasNext:    page.HasNext,
			HasPrev:    page.HasPrev,
		},
	})
}

func floatParam(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// Get handles GET /v1/events/:id
func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Events.Get(ctx, c.Param("id"))
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, toEventResponse(v))
}

// Categories handles GET /v1/events/categories
func (h *EventHandler) Categories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Events.Categories(ctx)
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

// Cities handles GET /v1/events/cities
func (h *EventHandler) Cities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Events.Cities(ctx)
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, out)
}

type createEventReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	City        string  `json:"city"`
	Address     string  `json:"address"`
	ImageURL    string  `json:"imageUrl"`
	Date        string  `json:"date"`
	Capacity    int     `json:"capacity"`
	Price       float64 `json:"price"`
}

// updateEventReq uses pointers so absent fields are left untouched.
type updateEventReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	City        *string  `json:"city"`
	Address     *string  `json:"address"`
	ImageURL    *string  `json:"imageUrl"`
	Date        *string  `json:"date"`
	Capacity    *int     `json:"capacity"`
	Price       *float64 `json:"price"`
}

// dateLayouts are tried in order when parsing an event date.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Create handles POST /v1/events (organizer or admin).
func (h *EventHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	in := service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Capacity:    req.Capacity,
		Price:       req.Price,
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		in.Date = d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Events.Create(ctx, actor, in)
	if err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusCreated, toEventResponse(v), "Event created successfully")
}

// Update handles PUT and PATCH /v1/events/:id.  Both merge partially.
func (h *EventHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	patch := model.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		Capacity:    req.Capacity,
		Price:       req.Price,
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		patch.Date = &d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Events.Update(ctx, actor, c.Param("id"), patch)
	if err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusOK, toEventResponse(v), "Event updated successfully")
}

// Delete handles DELETE /v1/events/:id
func (h *EventHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.Delete(ctx, actor, c.Param("id")); err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusOK, nil, "Event deleted successfully")
}
