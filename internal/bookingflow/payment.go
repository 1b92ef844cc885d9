package bookingflow

import (
	"context"
	"sync"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

// HomePath is where the guest lands after choosing to pay at the hotel.
const HomePath = "/"

// PaymentSelector offers the two payment paths of a confirmed booking. One
// selection may be in flight at a time and a successful one is final.
type PaymentSelector struct {
	mu sync.Mutex

	api        API
	notifier   Notifier
	modal      PaymentModal
	redirector Redirector
	bookingID  string
	customer   CustomerInfo
	log        *logrus.Entry

	pending  domain.PaymentMethod
	selected domain.PaymentMethod
}

type PaymentOption func(*PaymentSelector)

func WithPaymentLogger(log *logrus.Entry) PaymentOption {
	return func(p *PaymentSelector) {
		p.log = log
	}
}

func NewPaymentSelector(api API, notifier Notifier, modal PaymentModal, redirector Redirector, bookingID string, customer CustomerInfo, opts ...PaymentOption) *PaymentSelector {
	p := &PaymentSelector{
		api:        api,
		notifier:   notifier,
		modal:      modal,
		redirector: redirector,
		bookingID:  bookingID,
		customer:   customer,
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select records the payment method. Cash ends the flow with a redirect home;
// online opens the card payment modal.
func (p *PaymentSelector) Select(ctx context.Context, method domain.PaymentMethod) error {
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}

	p.mu.Lock()
	switch {
	case p.selected != "":
		p.mu.Unlock()
		return ErrAlreadySelected
	case p.pending != "":
		p.mu.Unlock()
		return ErrSelectionInFlight
	}
	p.pending = method
	p.mu.Unlock()

	chosen, err := p.api.ChangePaymentMethod(ctx, p.bookingID, method)

	p.mu.Lock()
	p.pending = ""
	if err != nil {
		p.mu.Unlock()
		p.log.WithError(err).WithFields(logrus.Fields{
			"booking_id":     p.bookingID,
			"payment_method": method,
		}).Warn("change payment method failed")
		p.notifier.Error("Failed to update payment method: " + upstreamMessage(err))
		return err
	}
	if !chosen.Valid() {
		chosen = method
	}
	p.selected = chosen
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"booking_id":     p.bookingID,
		"payment_method": chosen,
	}).Info("payment method selected")

	if chosen == domain.PaymentMethodCash {
		p.notifier.Success("Booking complete. You will pay at the hotel.")
		p.redirector.Redirect(HomePath)
		return nil
	}

	if err := p.modal.Open(ctx, p.bookingID, p.customer); err != nil {
		p.log.WithError(err).WithField("booking_id", p.bookingID).Warn("payment modal failed")
		p.notifier.Error("Payment could not be started: " + err.Error())
		return err
	}
	return nil
}

// Pending reports whether method is the selection in flight.
func (p *PaymentSelector) Pending(method domain.PaymentMethod) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != "" && p.pending == method
}

// Disabled reports whether method cannot be chosen right now.
func (p *PaymentSelector) Disabled(method domain.PaymentMethod) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != "" {
		return p.pending != method
	}
	return p.selected != "" && p.selected != method
}

func (p *PaymentSelector) Selected() domain.PaymentMethod {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

func (p *PaymentSelector) BookingID() string {
	return p.bookingID
}
