// Package bookingflow drives a guest through one booking: guest details,
// e-mail confirmation code, confirmation and payment method selection.
package bookingflow

import (
	"context"
	"errors"

	"github.com/Domenick1991/hotelbooking/internal/client"
	"github.com/Domenick1991/hotelbooking/internal/domain"
)

// API is the subset of the booking API the flow talks to.
type API interface {
	CreateBooking(ctx context.Context, draft domain.BookingDraft) (string, error)
	ResendConfirmationCode(ctx context.Context, bookingID string, draft domain.BookingDraft) error
	ConfirmBooking(ctx context.Context, bookingID, code string) error
	ChangePaymentMethod(ctx context.Context, bookingID string, method domain.PaymentMethod) (domain.PaymentMethod, error)
}

// Notifier shows transient messages to the guest.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// PaymentModal captures a card payment for a confirmed booking.
type PaymentModal interface {
	Open(ctx context.Context, bookingID string, customer CustomerInfo) error
}

type Redirector interface {
	Redirect(path string)
}

// CustomerInfo is the guest contact data handed to the payment step.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Tel      string `json:"tel"`
}

var (
	ErrFieldLocked          = errors.New("field is locked after the confirmation code was requested")
	ErrUnknownField         = errors.New("unknown form field")
	ErrInvalidFields        = errors.New("guest information is invalid")
	ErrCooldownActive       = errors.New("confirmation code was sent recently")
	ErrRequestInFlight      = errors.New("request already in progress")
	ErrCannotSubmit         = errors.New("form is not ready to submit")
	ErrNoBooking            = errors.New("no booking to confirm")
	ErrAlreadyConfirmed     = errors.New("booking already confirmed")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrSelectionInFlight    = errors.New("payment method selection in progress")
	ErrAlreadySelected      = errors.New("payment method already selected")
)

// upstreamMessage prefers the message the booking API returned over the
// wrapped transport error.
func upstreamMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

var _ API = (*client.Client)(nil)
