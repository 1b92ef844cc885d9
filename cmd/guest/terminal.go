package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Domenick1991/hotelbooking/internal/bookingflow"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/validation"
)

// terminal renders toasts, the payment modal and redirects as lines of text.
type terminal struct {
	in         *bufio.Scanner
	out        io.Writer
	redirected string
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

func (t *terminal) Success(msg string) {
	fmt.Fprintf(t.out, "[ok] %s\n", msg)
}

func (t *terminal) Error(msg string) {
	fmt.Fprintf(t.out, "[error] %s\n", msg)
}

func (t *terminal) Open(_ context.Context, bookingID string, customer bookingflow.CustomerInfo) error {
	fmt.Fprintf(t.out, "Online payment for booking %s\n  %s <%s> %s\n", bookingID, customer.FullName, customer.Email, customer.Tel)
	return nil
}

func (t *terminal) Redirect(path string) {
	t.redirected = path
	fmt.Fprintf(t.out, "-> %s\n", path)
}

// prompt returns the next input line, or io.EOF when input is exhausted.
func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

var guestPrompts = []struct {
	field string
	label string
}{
	{validation.FieldFullName, "Full name"},
	{validation.FieldEmail, "Email"},
	{validation.FieldTel, "Phone"},
}

// run walks the guest through details, code confirmation and payment choice.
func (t *terminal) run(ctx context.Context, session *bookingflow.Session) error {
	form := session.Form()

	for _, p := range guestPrompts {
		for !form.Errors().Valid(p.field) {
			if fieldValue(form, p.field) != "" {
				t.Error(form.Errors()[p.field])
			}
			value, err := t.prompt(p.label)
			if err != nil {
				return err
			}
			if err := form.SetField(p.field, value); err != nil {
				return err
			}
		}
	}

	if _, err := session.SendCode(ctx); err != nil {
		return err
	}

	for form.State() != bookingflow.StateConfirmed {
		value, err := t.prompt("Confirmation code (or \"resend\")")
		if err != nil {
			return err
		}
		if strings.EqualFold(value, "resend") {
			if _, err := session.SendCode(ctx); errors.Is(err, bookingflow.ErrCooldownActive) {
				t.Error(fmt.Sprintf("You can resend the code in %d seconds", form.Cooldown()))
			} else if err != nil {
				return err
			}
			continue
		}
		if err := form.SetField(validation.FieldConfirmationCode, value); err != nil {
			return err
		}
		_, err = session.Submit(ctx)
		switch {
		case errors.Is(err, bookingflow.ErrNoBooking):
			t.Error("The booking was not created, type \"resend\" to try again")
		case errors.Is(err, bookingflow.ErrCannotSubmit):
			t.Error(errorOr(form.Errors()[validation.FieldConfirmationCode], "Enter the 6 digit code from the e-mail"))
		case err != nil:
			return err
		}
	}

	payment := session.Payment()
	for payment.Selected() == "" {
		value, err := t.prompt("Pay ONLINE or CASH")
		if err != nil {
			return err
		}
		// failed selections were already reported and can be retried
		method := domain.PaymentMethod(strings.ToUpper(value))
		if err := payment.Select(ctx, method); errors.Is(err, bookingflow.ErrInvalidPaymentMethod) {
			t.Error("Choose ONLINE or CASH")
		}
	}
	return nil
}

func fieldValue(form *bookingflow.Form, field string) string {
	f := form.Fields()
	switch field {
	case validation.FieldFullName:
		return f.FullName
	case validation.FieldEmail:
		return f.Email
	case validation.FieldTel:
		return f.Tel
	default:
		return f.ConfirmationCode
	}
}

func errorOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
