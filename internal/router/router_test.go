package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/eventhub/internal/config"
	"github.com/iliyamo/eventhub/internal/handler"
	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/service"
)

const (
	jwtSecret    = "router-test-secret"
	bridgeSecret = "bridge-secret"
)

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	Pagination *handler.Pagination `json:"pagination"`
}

type app struct {
	t *testing.T
	e *echo.Echo
}

func newApp(t *testing.T) *app {
	t.Helper()
	log := zap.NewNop()
	cfg := config.Config{
		JWTSecret:  jwtSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		Social:     config.SocialConfig{GoogleClientID: "gid", GoogleClientSecret: "gsecret", BridgeSecret: bridgeSecret},
	}

	events := repository.NewMemoryEventRepo(repository.DemoEvents(time.Now().UTC())...)
	bookings := repository.NewMemoryBookingRepo()
	auth := service.NewAuthService(cfg, repository.NewMemoryUserRepo(), repository.NewMemoryTokenRepo(), log)
	eventSvc := service.NewEventService(events, nil, nil, log)
	bookingSvc := service.NewBookingService(events, bookings, nil, nil, nil, log)

	e := echo.New()
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(auth, cfg.Social.BridgeSecret), jwtSecret)
	RegisterEvents(e, handler.NewEventHandler(eventSvc), jwtSecret, middleware.NewRedisCache(config.CacheConfig{}, nil))
	RegisterBookings(e, handler.NewBookingHandler(bookingSvc), jwtSecret)
	return &app{t: t, e: e}
}

func (a *app) do(method, path, token string, body any, headers ...string) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

type session struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Access  struct{ Token string } `json:"access"`
	Refresh struct{ Token string } `json:"refresh"`
}

func (a *app) register(name, email, role string) session {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "Secret123", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, code, env.Error)
	var s session
	require.NoError(a.t, json.Unmarshal(env.Data, &s))
	return s
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	code, env := newApp(t).do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Message)
}

func TestBrowseEvents(t *testing.T) {
	a := newApp(t)

	code, env := a.do(http.MethodGet, "/v1/events?limit=3&page=2", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, handler.Pagination{Page: 2, Limit: 3, Total: 8, TotalPages: 3, HasNext: true, HasPrev: true}, *env.Pagination)
	items := decode[[]handler.EventResponse](t, env.Data)
	assert.Len(t, items, 3)

	code, env = a.do(http.MethodGet, "/v1/events?city=austin", "", nil)
	require.Equal(t, http.StatusOK, code)
	items = decode[[]handler.EventResponse](t, env.Data)
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].ID)
	assert.Equal(t, 60, items[0].AvailableSeats)
	assert.Equal(t, "upcoming", items[0].Status)

	code, env = a.do(http.MethodGet, "/v1/events?page=9223372036854775807", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]handler.EventResponse](t, env.Data))
	assert.Equal(t, 8, env.Pagination.Total)

	code, env = a.do(http.MethodGet, "/v1/events?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = a.do(http.MethodGet, "/v1/events/categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, decode[[]string](t, env.Data), "Music")

	code, env = a.do(http.MethodGet, "/v1/events/cities", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]string](t, env.Data), 8)

	code, env = a.do(http.MethodGet, "/v1/events/3", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Art", decode[handler.EventResponse](t, env.Data).Category)

	code, env = a.do(http.MethodGet, "/v1/events/404", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "event not found", env.Error)
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)
	s := a.register("Ada", "ada@example.com", "")
	assert.Equal(t, "user", s.User.Role)
	assert.NotEmpty(t, s.Access.Token)

	code, env := a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "Secret123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "user with this email already exists", env.Error)

	code, _ = a.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"name": "X", "email": "bad", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = a.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, code)
	login := decode[session](t, env.Data)

	code, env = a.do(http.MethodGet, "/v1/me", login.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[map[string]string](t, env.Data)
	assert.Equal(t, "ada@example.com", me["email"])

	code, env = a.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refreshToken": login.Refresh.Token})
	require.Equal(t, http.StatusOK, code)
	rotated := decode[session](t, env.Data)

	code, _ = a.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refreshToken": login.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, code, "rotated token is spent")

	code, _ = a.do(http.MethodPost, "/v1/auth/logout", "", map[string]string{"refreshToken": rotated.Refresh.Token})
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = a.do(http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSocialBridge(t *testing.T) {
	a := newApp(t)
	body := map[string]string{"provider": "google", "email": "sam@example.com", "name": "Sam"}

	code, _ := a.do(http.MethodPost, "/v1/auth/social", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = a.do(http.MethodPost, "/v1/auth/social", "", body, handler.SocialBridgeHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := a.do(http.MethodPost, "/v1/auth/social", "", body, handler.SocialBridgeHeader, bridgeSecret)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sam@example.com", decode[session](t, env.Data).User.Email)

	body["provider"] = "github"
	code, _ = a.do(http.MethodPost, "/v1/auth/social", "", body, handler.SocialBridgeHeader, bridgeSecret)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/v1/auth/providers", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"providers":["google"]}`, string(env.Data))
}

func TestUserProfileHidesEmail(t *testing.T) {
	a := newApp(t)
	ada := a.register("Ada", "ada@example.com", "")
	bob := a.register("Bob", "bob@example.com", "")

	code, env := a.do(http.MethodGet, "/v1/users/"+ada.User.ID, ada.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ada@example.com", decode[handler.UserResponse](t, env.Data).Email)

	code, env = a.do(http.MethodGet, "/v1/users/"+ada.User.ID, bob.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[handler.UserResponse](t, env.Data).Email)

	code, _ = a.do(http.MethodGet, "/v1/users/missing", bob.Access.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEventManagement(t *testing.T) {
	a := newApp(t)
	org := a.register("Olga", "olga@example.com", "organizer")
	other := a.register("Oscar", "oscar@example.com", "organizer")
	user := a.register("Ursula", "ursula@example.com", "user")

	create := map[string]any{
		"title": "Go Night", "description": "Lightning talks", "category": "Technology",
		"city": "Berlin", "imageUrl": "https://img/go.png",
		"date": time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339), "capacity": 40, "price": 10,
	}

	code, _ := a.do(http.MethodPost, "/v1/events", user.Access.Token, create)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodPost, "/v1/events", "", create)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := a.do(http.MethodPost, "/v1/events", org.Access.Token, map[string]any{"title": "Half"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "missing required fields")

	code, env = a.do(http.MethodPost, "/v1/events", org.Access.Token, create)
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, "Event created successfully", env.Message)
	ev := decode[handler.EventResponse](t, env.Data)
	assert.Equal(t, org.User.ID, ev.Organizer)
	assert.Equal(t, 40, ev.AvailableSeats)

	code, _ = a.do(http.MethodPatch, "/v1/events/"+ev.ID, other.Access.Token, map[string]any{"price": 0})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodPatch, "/v1/events/"+ev.ID, org.Access.Token, map[string]any{"price": 12.5})
	require.Equal(t, http.StatusOK, code)
	updated := decode[handler.EventResponse](t, env.Data)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Go Night", updated.Title)

	code, _ = a.do(http.MethodPut, "/v1/events/"+ev.ID, org.Access.Token, map[string]any{"date": "not a date"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodDelete, "/v1/events/"+ev.ID, org.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Event deleted successfully", env.Message)

	code, _ = a.do(http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBookingFlow(t *testing.T) {
	a := newApp(t)
	ada := a.register("Ada", "ada@example.com", "")
	bob := a.register("Bob", "bob@example.com", "")

	code, _ := a.do(http.MethodPost, "/v1/bookings", "", map[string]any{"eventId": "8", "numberOfTickets": 1})
	assert.Equal(t, http.StatusUnauthorized, code)

	// Event 8: capacity 25, 12 booked, price 80.
	code, env := a.do(http.MethodPost, "/v1/events/8/bookings", ada.Access.Token,
		map[string]any{"numberOfTickets": 2, "totalAmount": 160})
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, "Booking created successfully", env.Message)
	b := decode[handler.BookingResponse](t, env.Data)
	assert.Equal(t, "confirmed", b.Status)
	assert.Equal(t, "pending", b.PaymentStatus)
	assert.Equal(t, 160.0, b.TotalPrice)
	require.NotNil(t, b.Event)
	assert.Equal(t, 11, b.Event.AvailableSeats)

	code, env = a.do(http.MethodPost, "/v1/bookings", ada.Access.Token,
		map[string]any{"eventId": "8", "numberOfSeats": 1, "totalPrice": 1})
	assert.Equal(t, http.StatusBadRequest, code, "price mismatch")
	assert.Contains(t, env.Error, "does not match")

	code, _ = a.do(http.MethodPost, "/v1/bookings", ada.Access.Token, map[string]any{"eventId": "8", "numberOfTickets": 12})
	assert.Equal(t, http.StatusConflict, code, "only 11 left")

	code, _ = a.do(http.MethodPost, "/v1/bookings", ada.Access.Token, map[string]any{"eventId": "8", "numberOfTickets": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/v1/bookings", ada.Access.Token, map[string]any{"eventId": "99", "numberOfTickets": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(http.MethodGet, "/v1/bookings", ada.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]handler.BookingResponse](t, env.Data), 1)

	code, _ = a.do(http.MethodGet, "/v1/bookings/"+b.ID, bob.Access.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodDelete, "/v1/bookings/"+b.ID, bob.Access.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodDelete, "/v1/bookings/"+b.ID, ada.Access.Token, nil)
	require.Equal(t, http.StatusOK, code)
	cancelled := decode[handler.BookingResponse](t, env.Data)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, 13, cancelled.Event.AvailableSeats)

	code, _ = a.do(http.MethodDelete, "/v1/bookings/"+b.ID, ada.Access.Token, nil)
	assert.Equal(t, http.StatusConflict, code)
}
