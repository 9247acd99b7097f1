package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/repository"
)

// requestTimeout bounds store calls made on behalf of one request.
const requestTimeout = 5 * time.Second

// Pagination is the paging block of list responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func okMsg(c echo.Context, status int, data any, msg string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: msg})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: false, Error: msg})
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrNotBookable):
		return http.StatusConflict
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fromError writes the error envelope.  Internal errors are not echoed to
// the client; they go back to echo so the request logger records them.
func fromError(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = fail(c, status, http.StatusText(status))
		return err
	}
	return fail(c, status, clientMessage(err))
}

var sentinels = []error{
	repository.ErrNotFound, repository.ErrValidation, repository.ErrCapacityExceeded,
	repository.ErrNotBookable, repository.ErrAlreadyExists, repository.ErrForbidden,
	repository.ErrInvalidCredentials,
}

// clientMessage drops the trailing sentinel text from a wrapped error, so
// "event not found: not found" reads "event not found".
func clientMessage(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if suffix := ": " + s.Error(); errors.Is(err, s) && strings.HasSuffix(msg, suffix) {
			return strings.TrimSuffix(msg, suffix)
		}
	}
	return msg
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
