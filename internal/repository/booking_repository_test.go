package repository

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventhub/internal/model"
)

var bookingCols = []string{"id", "event_id", "user_id", "seats", "total_price", "status", "payment_status", "created_at", "updated_at"}

func bookingRow(id, status, payment string) []driver.Value {
	return []driver.Value{id, "e1", "u1", 2, 50.0, status, payment, baseTime, baseTime}
}

func newMockBookingRepo(t *testing.T) (*MySQLBookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLBookingRepo(db), mock
}

func TestMySQLBookingRepo_UpdateStatus(t *testing.T) {
	r, mock := newMockBookingRepo(t)
	mock.ExpectExec(`UPDATE bookings SET status = \?.*WHERE id = \? AND status IN \(\?, \?\)`).
		WithArgs(model.BookingCancelled, model.PaymentRefunded, model.PaymentRefunded, sqlmock.AnyArg(), "b1",
			model.BookingPending, model.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("b1", model.BookingCancelled, model.PaymentRefunded)...))

	b, err := r.UpdateStatus(context.Background(), "b1", model.ActiveStatuses(), model.BookingCancelled, model.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepo_UpdateStatusAlreadyCancelled(t *testing.T) {
	r, mock := newMockBookingRepo(t)
	mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRow("b1", model.BookingCancelled, model.PaymentPending)...))

	_, err := r.UpdateStatus(context.Background(), "b1", model.ActiveStatuses(), model.BookingCancelled, "")
	assert.ErrorIs(t, err, ErrNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepo_UpdateStatusMissing(t *testing.T) {
	r, mock := newMockBookingRepo(t)
	mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := r.UpdateStatus(context.Background(), "nope", model.ActiveStatuses(), model.BookingCancelled, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepo_RevokeByHashOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	r := NewMySQLTokenRepo(db)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\? AND revoked_at IS NULL`).
		WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.RevokeByHash(context.Background(), "h1"))
	assert.ErrorIs(t, r.RevokeByHash(context.Background(), "h1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
