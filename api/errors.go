package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/hotelbooking/internal/auth"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/Domenick1991/hotelbooking/internal/service/rooms"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, booking.ErrInvalidStay),
		errors.Is(err, booking.ErrCheckInPast),
		errors.Is(err, booking.ErrCapacityExceeded),
		errors.Is(err, booking.ErrPriceMismatch),
		errors.Is(err, booking.ErrInvalidPaymentMethod):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrRoomNotFound),
		errors.Is(err, rooms.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrRoomUnavailable),
		errors.Is(err, booking.ErrNotPending),
		errors.Is(err, booking.ErrNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, booking.ErrCodeExpired):
		return http.StatusGone
	case errors.Is(err, booking.ErrInvalidCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrResendCooldown), errors.Is(err, booking.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
