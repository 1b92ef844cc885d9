package bookingflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/client"
	"github.com/Domenick1991/hotelbooking/internal/countdown"
	"github.com/Domenick1991/hotelbooking/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestForm_SendCodeRequiresValidGuestFields(t *testing.T) {
	f := newFixture()
	form := f.session.Form()
	form.SetField("fullName", "Jane Doe")
	form.SetField("email", "jane.example.com")
	form.SetField("tel", "555-123-4567")

	assert.False(t, form.CanSendCode())
	res, err := form.SendCode(context.Background())
	assert.ErrorIs(t, err, ErrInvalidFields)
	assert.Empty(t, res.BookingID)

	assert.False(t, form.CodeSent())
	assert.Equal(t, StateEditing, form.State())
	assert.Equal(t, "Please enter a valid email address", form.Errors()["email"])
	assert.Equal(t, 0, f.session.Timer().Remaining())
	assert.Equal(t, 0, f.notifier.count())
	f.api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestForm_SendCodeCreatesBooking(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil).Once()

	form := f.session.Form()
	require.True(t, form.CanSendCode())
	res, err := form.SendCode(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "b-1", res.BookingID)

	assert.True(t, form.CodeSent())
	assert.True(t, form.Locked())
	assert.Equal(t, "b-1", form.BookingID())
	assert.Equal(t, StateCodeRequested, form.State())
	assert.Equal(t, countdown.DefaultCooldown, form.Cooldown())
	assert.Equal(t, toast{ok: true, msg: "Confirmation code sent to jane@example.com"}, f.notifier.last())
	f.api.AssertExpectations(t)
}

func TestForm_GuestFieldsLockAfterCodeRequested(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)

	form := f.session.Form()
	_, err := form.SendCode(context.Background())
	require.NoError(t, err)

	for _, field := range validation.GuestFields {
		assert.ErrorIs(t, form.SetField(field, "changed"), ErrFieldLocked, field)
	}
	assert.Equal(t, "Jane Doe", form.Fields().FullName)
	assert.NoError(t, form.SetField("confirmationCode", "123456"))
}

func TestForm_CooldownBlocksResend(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil).Once()
	f.api.On("ResendConfirmationCode", mock.Anything, "b-1", testDraft()).Return(nil).Once()

	form := f.session.Form()
	_, err := form.SendCode(context.Background())
	require.NoError(t, err)

	f.session.Timer().Tick()
	assert.False(t, form.CanSendCode())
	_, err = form.SendCode(context.Background())
	assert.ErrorIs(t, err, ErrCooldownActive)

	f.drainCooldown()
	require.True(t, form.CanSendCode())
	res, err := form.SendCode(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "b-1", form.BookingID())
	assert.Equal(t, countdown.DefaultCooldown, form.Cooldown())
	assert.Equal(t, toast{ok: true, msg: "Confirmation code resent to jane@example.com"}, f.notifier.last())
	f.api.AssertExpectations(t)
}

func TestForm_ResendFailureStillRestartsCooldown(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil).Once()
	f.api.On("ResendConfirmationCode", mock.Anything, "b-1", testDraft()).
		Return(&client.APIError{StatusCode: 429, Message: "confirmation code was sent recently"}).Once()

	form := f.session.Form()
	form.SendCode(context.Background())
	f.drainCooldown()

	res, err := form.SendCode(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, res.CodeSent())
	assert.Equal(t, countdown.DefaultCooldown, form.Cooldown())
	assert.Equal(t, toast{ok: false, msg: "Failed to resend confirmation code: confirmation code was sent recently"}, f.notifier.last())
	assert.Equal(t, StateCodeRequested, form.State())
}

func TestForm_CreateFailureArmsResend(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).
		Return("", errors.New("create booking: connection refused")).Once()

	form := f.session.Form()
	res, err := form.SendCode(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK())

	assert.True(t, form.CodeSent())
	assert.Empty(t, form.BookingID())
	assert.Equal(t, countdown.DefaultCooldown, form.Cooldown())
	assert.Equal(t, toast{ok: false, msg: "Failed to send confirmation code: create booking: connection refused"}, f.notifier.last())

	// no booking id yet, so a confirmation attempt does nothing
	require.NoError(t, form.SetField("confirmationCode", "123456"))
	assert.False(t, form.CanSubmit())
	_, err = form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoBooking)
	f.api.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything, mock.Anything)

	// the next send creates the booking again
	f.drainCooldown()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-2", nil).Once()
	_, err = form.SendCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-2", form.BookingID())
	f.api.AssertExpectations(t)
}

func TestForm_CodeInputFilters(t *testing.T) {
	t.Run("digits only", func(t *testing.T) {
		f := newFixture()
		form := f.session.Form()
		require.NoError(t, form.SetField("confirmationCode", "a1b2c3d4!!"))
		assert.Equal(t, "1234", form.Fields().ConfirmationCode)
	})

	t.Run("alphanumeric", func(t *testing.T) {
		f := newFixture(func(c *Config) { c.CodeFilter = validation.FilterAlphanumeric })
		f.fillGuest()
		f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)

		form := f.session.Form()
		_, err := form.SendCode(context.Background())
		require.NoError(t, err)

		require.NoError(t, form.SetField("confirmationCode", "a1b2c3d4!!"))
		assert.Equal(t, "a1b2c3", form.Fields().ConfirmationCode)
		// six characters but not six digits
		assert.False(t, form.CanSubmit())
		assert.Equal(t, "Confirmation code must be exactly 6 digits", form.Errors()["confirmationCode"])
	})
}

func TestForm_SubmitGuards(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	form := f.session.Form()

	require.NoError(t, form.SetField("confirmationCode", "123456"))
	assert.False(t, form.CanSubmit(), "code not sent yet")
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrCannotSubmit)

	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)
	_, err = form.SendCode(context.Background())
	require.NoError(t, err)

	require.NoError(t, form.SetField("confirmationCode", "12345"))
	assert.False(t, form.CanSubmit(), "code too short")

	require.NoError(t, form.SetField("confirmationCode", "123456"))
	assert.True(t, form.CanSubmit())
	f.api.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestForm_StateTransitions(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)
	form := f.session.Form()

	assert.Equal(t, StateEditing, form.State())
	form.SendCode(context.Background())
	assert.Equal(t, StateCodeRequested, form.State())

	form.SetField("confirmationCode", "1")
	assert.Equal(t, StateConfirming, form.State())
	form.SetField("confirmationCode", "")
	assert.Equal(t, StateCodeRequested, form.State())
}

func TestForm_CodeTypedBeforeSend(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)
	form := f.session.Form()

	// код введён до отправки, форма сразу переходит к подтверждению
	require.NoError(t, form.SetField("confirmationCode", "123456"))
	assert.Equal(t, StateEditing, form.State())

	res, err := form.SendCode(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, StateConfirming, form.State())
	assert.True(t, form.CanSubmit())
}

func TestForm_SubmitRequiresBooking(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).
		Return("", errors.New("create booking: connection refused")).Once()
	form := f.session.Form()

	form.SendCode(context.Background())
	require.NoError(t, form.SetField("confirmationCode", "123456"))
	require.True(t, form.CodeSent())
	require.True(t, form.Errors().Empty())

	assert.False(t, form.CanSubmit())
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoBooking)
	f.api.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestForm_ConfirmFailureIsRetriable(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	f.api.On("CreateBooking", mock.Anything, testDraft()).Return("b-1", nil)
	f.api.On("ConfirmBooking", mock.Anything, "b-1", "000000").
		Return(&client.APIError{StatusCode: 422, Message: "invalid confirmation code"}).Once()
	f.api.On("ConfirmBooking", mock.Anything, "b-1", "123456").Return(nil).Once()

	form := f.session.Form()
	form.SendCode(context.Background())

	form.SetField("confirmationCode", "000000")
	res, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, StateConfirming, form.State())
	assert.Equal(t, toast{ok: false, msg: "Failed to confirm booking: invalid confirmation code"}, f.notifier.last())

	form.SetField("confirmationCode", "123456")
	res, err = form.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, StateConfirmed, form.State())

	assert.ErrorIs(t, form.SetField("confirmationCode", "111111"), ErrFieldLocked)
	_, err = form.SendCode(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	f.api.AssertExpectations(t)
}

func TestForm_Prefill(t *testing.T) {
	f := newFixture(func(c *Config) {
		c.Prefill = &Prefill{FullName: "Jane Doe", Email: "jane@example.com", Tel: "555-123-4567"}
	})
	form := f.session.Form()

	assert.True(t, form.CanSendCode())
	assert.Equal(t, CustomerInfo{FullName: "Jane Doe", Email: "jane@example.com", Tel: "555-123-4567"}, form.CustomerInfo())
	assert.True(t, form.Errors().Valid("fullName"))
	assert.False(t, form.Errors().Valid("confirmationCode"))
}

func TestForm_UnknownField(t *testing.T) {
	f := newFixture()
	err := f.session.Form().SetField("roomId", "R2")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestForm_PendingIndicators(t *testing.T) {
	f := newFixture()
	f.fillGuest()
	form := f.session.Form()

	release := make(chan struct{})
	f.api.On("CreateBooking", mock.Anything, testDraft()).
		Run(func(mock.Arguments) { <-release }).
		Return("b-1", nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := form.SendCode(context.Background())
		done <- err
	}()

	require.Eventually(t, form.Sending, time.Second, time.Millisecond)
	assert.False(t, form.CanSendCode())
	_, err := form.SendCode(context.Background())
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, form.Sending())

	confirmed := make(chan struct{})
	f.api.On("ConfirmBooking", mock.Anything, "b-1", "123456").
		Run(func(mock.Arguments) { <-confirmed }).
		Return(nil).Once()
	require.NoError(t, form.SetField("confirmationCode", "123456"))

	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, form.Confirming, time.Second, time.Millisecond)
	assert.False(t, form.CanSubmit())

	close(confirmed)
	require.NoError(t, <-done)
	assert.False(t, form.Confirming())
	assert.Equal(t, StateConfirmed, form.State())
}
