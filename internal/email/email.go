package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a rendered message. The default transport only logs.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

type Sender struct {
	transport Transport
	log       *logrus.Entry
}

func NewSender(transport Transport, log *logrus.Entry) *Sender {
	if transport == nil {
		transport = LogTransport{log: log}
	}
	return &Sender{transport: transport, log: log}
}

// Send renders and delivers the e-mail for a notification event. Events
// without a guest facing message are skipped.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Render(event)
	if !ok {
		s.log.WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID}).Debug("no e-mail for event")
		return nil
	}
	if err := s.transport.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s e-mail for booking %s: %w", event.Type, event.BookingID, err)
	}
	s.log.WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID, "to": msg.To}).Info("e-mail sent")
	return nil
}

func Render(event kafka.BookingEvent) (Message, bool) {
	if event.Email == "" {
		return Message{}, false
	}
	name := event.FullName
	if name == "" {
		name = "guest"
	}
	stay := fmt.Sprintf("room %s from %s to %s", event.RoomID, event.CheckInDate, event.CheckOutDate)

	var subject string
	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", name)

	switch event.Type {
	case kafka.EventConfirmationCode:
		subject = "Your booking confirmation code"
		fmt.Fprintf(&body, "Your confirmation code is %s.\n", event.Code)
		fmt.Fprintf(&body, "Enter it to confirm your booking of %s. The code expires at %s.\n",
			stay, event.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	case kafka.EventBookingConfirmed:
		subject = "Your booking is confirmed"
		fmt.Fprintf(&body, "Your booking of %s is confirmed. Total price: %d.\n", stay, event.TotalPrice)
	case kafka.EventPaymentMethodSelected:
		subject = "Payment method selected"
		if event.PaymentMethod == "CASH" {
			fmt.Fprintf(&body, "You chose to pay %d at the hotel on arrival.\n", event.TotalPrice)
		} else {
			fmt.Fprintf(&body, "You chose to pay %d online.\n", event.TotalPrice)
		}
	case kafka.EventBookingCancelled:
		subject = "Your booking was cancelled"
		fmt.Fprintf(&body, "Your booking of %s was cancelled.\n", stay)
	case kafka.EventBookingExpired:
		subject = "Your booking expired"
		fmt.Fprintf(&body, "Your booking of %s expired before it was confirmed.\n", stay)
	default:
		return Message{}, false
	}
	fmt.Fprintf(&body, "\nBooking reference: %s\n", event.BookingID)

	return Message{To: event.Email, Subject: subject, Body: body.String()}, true
}

type LogTransport struct {
	log *logrus.Entry
}

func (t LogTransport) Deliver(_ context.Context, msg Message) error {
	t.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info(msg.Body)
	return nil
}
