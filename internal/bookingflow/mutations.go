package bookingflow

import (
	"context"

	"github.com/Domenick1991/hotelbooking/internal/countdown"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of one remote booking call: either a booking id or an
// error whose message was already shown to the guest.
type Result struct {
	BookingID string
	Err       error

	codeSent bool
}

func (r Result) OK() bool {
	return r.Err == nil
}

// CodeSent reports whether the call leaves the form in the code-requested
// state. Create and resend report true even on failure so the guest can retry
// through resend.
func (r Result) CodeSent() bool {
	return r.codeSent
}

// Mutations wraps the booking API calls with their notification and cooldown
// side effects.
type Mutations struct {
	api      API
	notifier Notifier
	timer    *countdown.Timer
	cooldown int
	log      *logrus.Entry
}

type MutationsOption func(*Mutations)

func WithCooldown(seconds int) MutationsOption {
	return func(m *Mutations) {
		m.cooldown = seconds
	}
}

func WithLogger(log *logrus.Entry) MutationsOption {
	return func(m *Mutations) {
		m.log = log
	}
}

func NewMutations(api API, notifier Notifier, timer *countdown.Timer, opts ...MutationsOption) *Mutations {
	m := &Mutations{
		api:      api,
		notifier: notifier,
		timer:    timer,
		cooldown: countdown.DefaultCooldown,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mutations) CreateBooking(ctx context.Context, draft domain.BookingDraft) Result {
	id, err := m.api.CreateBooking(ctx, draft)
	m.timer.Start(m.cooldown)
	if err != nil {
		m.log.WithError(err).WithField("room_id", draft.RoomID).Warn("create booking failed")
		m.notifier.Error("Failed to send confirmation code: " + upstreamMessage(err))
		return Result{Err: err, codeSent: true}
	}

	m.log.WithFields(logrus.Fields{"booking_id": id, "room_id": draft.RoomID}).Info("booking created, confirmation code sent")
	m.notifier.Success("Confirmation code sent to " + draft.Email)
	return Result{BookingID: id, codeSent: true}
}

func (m *Mutations) ResendCode(ctx context.Context, bookingID string, draft domain.BookingDraft) Result {
	err := m.api.ResendConfirmationCode(ctx, bookingID, draft)
	m.timer.Start(m.cooldown)
	if err != nil {
		m.log.WithError(err).WithField("booking_id", bookingID).Warn("resend confirmation code failed")
		m.notifier.Error("Failed to resend confirmation code: " + upstreamMessage(err))
		return Result{BookingID: bookingID, Err: err, codeSent: true}
	}

	m.log.WithField("booking_id", bookingID).Info("confirmation code resent")
	m.notifier.Success("Confirmation code resent to " + draft.Email)
	return Result{BookingID: bookingID, codeSent: true}
}

func (m *Mutations) ConfirmBooking(ctx context.Context, bookingID, code string) Result {
	if err := m.api.ConfirmBooking(ctx, bookingID, code); err != nil {
		m.log.WithError(err).WithField("booking_id", bookingID).Warn("confirm booking failed")
		m.notifier.Error("Failed to confirm booking: " + upstreamMessage(err))
		return Result{BookingID: bookingID, Err: err}
	}

	m.log.WithField("booking_id", bookingID).Info("booking confirmed")
	m.notifier.Success("Booking confirmed")
	return Result{BookingID: bookingID}
}

func (m *Mutations) Timer() *countdown.Timer {
	return m.timer
}
