package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingEvent_RoundTripKeepsCode(t *testing.T) {
	event := BookingEvent{
		Type:         EventConfirmationCode,
		BookingID:    "b-1",
		Email:        "jane@example.com",
		CheckInDate:  "2026-11-01",
		CheckOutDate: "2026-11-03",
		Code:         "123456",
		ExpiresAt:    time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":"123456"`)

	decoded, err := DecodeBookingEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestBookingEvent_OmitsEmptyCode(t *testing.T) {
	data, err := json.Marshal(BookingEvent{Type: EventBookingConfirmed, BookingID: "b-1"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"code"`)
	assert.NotContains(t, string(data), `"payment_method"`)
}

func TestDecodeBookingEvent_Invalid(t *testing.T) {
	_, err := DecodeBookingEvent([]byte("{not json"))
	assert.ErrorContains(t, err, "failed to decode booking event")
}

func TestProducer_WithRetries(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, logrus.NewEntry(logrus.New()))
	defer p.Close()

	assert.Equal(t, 3, p.WithRetries(3).attempts)
	// минимум одна попытка
	assert.Equal(t, 1, p.WithRetries(0).attempts)
}
