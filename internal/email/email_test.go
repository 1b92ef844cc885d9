package email

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	sent []Message
	err  error
}

func (r *recordingTransport) Deliver(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func quietEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func codeEvent() kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:         kafka.EventConfirmationCode,
		BookingID:    "b-1",
		RoomID:       "R1",
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		CheckInDate:  "2026-11-01",
		CheckOutDate: "2026-11-03",
		Code:         "123456",
		ExpiresAt:    time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC),
	}
}

func TestSender_ConfirmationCode(t *testing.T) {
	transport := &recordingTransport{}
	sender := NewSender(transport, quietEntry())

	require.NoError(t, sender.Send(context.Background(), codeEvent()))
	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Your booking confirmation code", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Jane Doe")
	assert.Contains(t, msg.Body, "Your confirmation code is 123456.")
	assert.Contains(t, msg.Body, "room R1 from 2026-11-01 to 2026-11-03")
	assert.Contains(t, msg.Body, "2026-10-19 12:15 UTC")
}

func TestSender_SkipsEventsWithoutMessage(t *testing.T) {
	transport := &recordingTransport{}
	sender := NewSender(transport, quietEntry())

	event := codeEvent()
	event.Type = kafka.EventBookingCreated
	require.NoError(t, sender.Send(context.Background(), event))

	event = codeEvent()
	event.Email = ""
	require.NoError(t, sender.Send(context.Background(), event))

	assert.Empty(t, transport.sent)
}

func TestSender_TransportError(t *testing.T) {
	sender := NewSender(&recordingTransport{err: errors.New("smtp down")}, quietEntry())
	err := sender.Send(context.Background(), codeEvent())
	assert.EqualError(t, err, "deliver confirmation_code e-mail for booking b-1: smtp down")
}

func TestRender_PaymentMethod(t *testing.T) {
	event := codeEvent()
	event.Type = kafka.EventPaymentMethodSelected
	event.PaymentMethod = "CASH"
	event.TotalPrice = 200

	msg, ok := Render(event)
	require.True(t, ok)
	assert.Contains(t, msg.Body, "pay 200 at the hotel")

	event.PaymentMethod = "ONLINE"
	msg, _ = Render(event)
	assert.Contains(t, msg.Body, "pay 200 online")
}

func TestNewSender_DefaultsToLogTransport(t *testing.T) {
	sender := NewSender(nil, quietEntry())
	assert.NoError(t, sender.Send(context.Background(), codeEvent()))
}
