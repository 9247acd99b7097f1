package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/service"
)

// BookingHandler serves booking intake and the caller's bookings.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// bookReq accepts both field spellings clients send: numberOfTickets or
// numberOfSeats, totalAmount or totalPrice.
type bookReq struct {
	EventID         string   `json:"eventId"`
	NumberOfTickets *int     `json:"numberOfTickets"`
	NumberOfSeats   *int     `json:"numberOfSeats"`
	TotalAmount     *float64 `json:"totalAmount"`
	TotalPrice      *float64 `json:"totalPrice"`
}

// BookingResponse is the public shape of a booking.
type BookingResponse struct {
	ID            string         `json:"id"`
	EventID       string         `json:"eventId"`
	UserID        string         `json:"userId"`
	Seats         int            `json:"numberOfTickets"`
	TotalPrice    float64        `json:"totalAmount"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Event         *EventResponse `json:"event,omitempty"`
}

func toBookingResponse(v service.BookingView) BookingResponse {
	out := BookingResponse{
		ID:            v.ID,
		EventID:       v.EventID,
		UserID:        v.UserID,
		Seats:         v.Seats,
		TotalPrice:    v.TotalPrice,
		Status:        v.Status,
		PaymentStatus: v.PaymentStatus,
		CreatedAt:     v.CreatedAt.UTC(),
		UpdatedAt:     v.UpdatedAt.UTC(),
	}
	if v.Event != nil {
		ev := toEventResponse(*v.Event)
		out.Event = &ev
	}
	return out
}

// Create handles POST /v1/bookings and POST /v1/events/:id/bookings.  The
// path id wins over eventId in the body.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	in := service.BookInput{EventID: req.EventID, TotalPrice: req.TotalAmount}
	if id := c.Param("id"); id != "" {
		in.EventID = id
	}
	switch {
	case req.NumberOfTickets != nil:
		in.Seats = *req.NumberOfTickets
	case req.NumberOfSeats != nil:
		in.Seats = *req.NumberOfSeats
	}
	if in.TotalPrice == nil {
		in.TotalPrice = req.TotalPrice
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Bookings.Book(ctx, actor, in)
	if err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusCreated, toBookingResponse(v), "Booking created successfully")
}

// List handles GET /v1/bookings
func (h *BookingHandler) List(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.ListForUser(ctx, actor.UserID)
	if err != nil {
		return fromError(c, err)
	}
	out := make([]BookingResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toBookingResponse(v))
	}
	return ok(c, http.StatusOK, out)
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Bookings.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, toBookingResponse(v))
}

// Cancel handles DELETE /v1/bookings/:id
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Bookings.Cancel(ctx, actor, c.Param("id"))
	if err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusOK, toBookingResponse(v), "Booking cancelled")
}
