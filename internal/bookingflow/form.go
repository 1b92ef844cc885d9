package bookingflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/validation"
)

type State int

const (
	StateEditing State = iota
	StateCodeRequested
	StateConfirming
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateCodeRequested:
		return "code_requested"
	case StateConfirming:
		return "confirming"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Selection is the room and stay chosen before the guest form opens.
type Selection struct {
	RoomID       string
	CheckInDate  domain.Date
	CheckOutDate domain.Date
	TotalPrice   int64
	NumOfGuest   int
}

// Prefill seeds guest fields, typically from a signed-in account.
type Prefill struct {
	FullName string
	Email    string
	Tel      string
}

// Form is the guest information state machine. Guest fields lock once a
// confirmation code was requested and stay locked for the rest of the flow.
type Form struct {
	mu sync.Mutex

	selection Selection
	validator *validation.Validator
	mutations *Mutations
	filter    func(string) string

	fields     validation.Fields
	errors     validation.Errors
	state      State
	bookingID  string
	codeSent   bool
	sending    bool
	confirming bool
}

type FormOption func(*Form)

func WithPrefill(p Prefill) FormOption {
	return func(f *Form) {
		f.fields.FullName = p.FullName
		f.fields.Email = p.Email
		f.fields.Tel = p.Tel
	}
}

// WithCodeFilter replaces the confirmation code input filter.
func WithCodeFilter(filter func(string) string) FormOption {
	return func(f *Form) {
		f.filter = filter
	}
}

func WithValidator(v *validation.Validator) FormOption {
	return func(f *Form) {
		f.validator = v
	}
}

func NewForm(selection Selection, mutations *Mutations, opts ...FormOption) *Form {
	f := &Form{
		selection: selection,
		mutations: mutations,
		filter:    validation.FilterDigits,
		state:     StateEditing,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.validator == nil {
		f.validator = validation.New()
	}
	f.errors = f.validator.Fields(f.fields)
	return f
}

// SetField stores a field value and revalidates the form.
func (f *Form) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateConfirmed {
		return ErrFieldLocked
	}

	switch field {
	case validation.FieldFullName, validation.FieldEmail, validation.FieldTel:
		if f.codeSent {
			return ErrFieldLocked
		}
	case validation.FieldConfirmationCode:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	switch field {
	case validation.FieldFullName:
		f.fields.FullName = value
	case validation.FieldEmail:
		f.fields.Email = value
	case validation.FieldTel:
		f.fields.Tel = value
	case validation.FieldConfirmationCode:
		f.fields.ConfirmationCode = f.filter(value)
		switch {
		case f.state == StateCodeRequested && f.fields.ConfirmationCode != "":
			f.state = StateConfirming
		case f.state == StateConfirming && f.fields.ConfirmationCode == "":
			f.state = StateCodeRequested
		}
	}

	f.errors = f.validator.Fields(f.fields)
	return nil
}

func (f *Form) CanSendCode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendGuardLocked() == nil
}

// SendCode creates the booking on the first call and resends the code on
// later ones. Guard failures return an error without any remote call; remote
// failures are reported in the Result.
func (f *Form) SendCode(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if err := f.sendGuardLocked(); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	f.sending = true
	draft := f.draftLocked()
	bookingID := f.bookingID
	f.mu.Unlock()

	var res Result
	if bookingID == "" {
		res = f.mutations.CreateBooking(ctx, draft)
	} else {
		res = f.mutations.ResendCode(ctx, bookingID, draft)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sending = false
	if res.BookingID != "" {
		f.bookingID = res.BookingID
	}
	if res.CodeSent() {
		f.codeSent = true
		if f.state == StateEditing {
			f.state = StateCodeRequested
			if f.fields.ConfirmationCode != "" {
				f.state = StateConfirming
			}
		}
	}
	return res, nil
}

func (f *Form) sendGuardLocked() error {
	if f.state == StateConfirmed {
		return ErrAlreadyConfirmed
	}
	guest := f.validator.Fields(f.fields, validation.GuestFields...)
	for _, name := range validation.GuestFields {
		delete(f.errors, name)
		if msg, failed := guest[name]; failed {
			f.errors[name] = msg
		}
	}
	if !guest.Empty() {
		return ErrInvalidFields
	}
	if f.sending {
		return ErrRequestInFlight
	}
	if f.mutations.Timer().Running() {
		return ErrCooldownActive
	}
	return nil
}

func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitGuardLocked() == nil
}

// Submit confirms the booking with the entered code. Without a booking id it
// is a no-op returning ErrNoBooking.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if err := f.submitGuardLocked(); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	f.confirming = true
	bookingID := f.bookingID
	code := f.fields.ConfirmationCode
	f.mu.Unlock()

	res := f.mutations.ConfirmBooking(ctx, bookingID, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = false
	if res.OK() {
		f.state = StateConfirmed
	}
	return res, nil
}

func (f *Form) submitGuardLocked() error {
	switch {
	case f.state == StateConfirmed:
		return ErrAlreadyConfirmed
	case f.confirming:
		return ErrRequestInFlight
	case !f.codeSent,
		len(f.fields.ConfirmationCode) != validation.CodeLength,
		!f.errors.Empty():
		return ErrCannotSubmit
	case f.bookingID == "":
		return ErrNoBooking
	}
	return nil
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) BookingID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookingID
}

func (f *Form) CodeSent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codeSent
}

// Locked reports whether the guest fields are read-only.
func (f *Form) Locked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codeSent || f.state == StateConfirmed
}

func (f *Form) Sending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sending
}

func (f *Form) Confirming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirming
}

// Cooldown returns the seconds left before the code may be resent.
func (f *Form) Cooldown() int {
	return f.mutations.Timer().Remaining()
}

func (f *Form) Fields() validation.Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Errors returns a copy of the current per-field validation messages.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(validation.Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) CustomerInfo() CustomerInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return CustomerInfo{
		FullName: strings.TrimSpace(f.fields.FullName),
		Email:    strings.TrimSpace(f.fields.Email),
		Tel:      strings.TrimSpace(f.fields.Tel),
	}
}

func (f *Form) draftLocked() domain.BookingDraft {
	return domain.BookingDraft{
		CheckInDate:  f.selection.CheckInDate,
		CheckOutDate: f.selection.CheckOutDate,
		FullName:     strings.TrimSpace(f.fields.FullName),
		Email:        strings.TrimSpace(f.fields.Email),
		Tel:          strings.TrimSpace(f.fields.Tel),
		TotalPrice:   f.selection.TotalPrice,
		NumOfGuest:   f.selection.NumOfGuest,
		RoomID:       f.selection.RoomID,
	}
}
