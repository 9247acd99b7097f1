package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleEvent() BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:   "b-1",
		UserID:      "u-1",
		UserEmail:   "ada@example.com",
		EventID:     "8",
		EventTitle:  `Pottery "Basics"`,
		City:        "Portland",
		EventDate:   "2026-08-01T18:00:00Z",
		Seats:       2,
		TotalPrice:  160,
		ConfirmedAt: "2026-06-01T10:00:00Z",
	}
}

func TestWriteBookingLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookingLine(&buf, sampleEvent()))
	assert.Equal(t,
		`[2026-06-01T10:00:00Z] Booking confirmed | booking_id=b-1 | user_id=u-1 | email=ada@example.com | event_id=8 | event="Pottery \"Basics\"" | city="Portland" | date=2026-08-01T18:00:00Z | seats=2 | total=160.00`+"\n",
		buf.String())
}

func TestEventJSONFieldNames(t *testing.T) {
	bs, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(bs, &m))
	for _, k := range []string{"bookingId", "userId", "userEmail", "eventId", "eventTitle", "city", "eventDate", "seats", "totalPrice", "confirmedAt"} {
		assert.Contains(t, m, k)
	}
}

func TestConsumerHandle_AppendsToLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "booking.log")
	c := &Consumer{LogPath: path, Log: zap.NewNop()}

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.handle(body))
	require.NoError(t, c.handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking_id=b-1")

	assert.Error(t, c.handle([]byte("{not json")))
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}
