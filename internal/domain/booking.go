package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// PaymentMethod values are API literals and must not change.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCash   PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCash
}

const DateLayout = "2006-01-02"

// Date is a calendar day encoded as "2006-01-02" on the wire.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	// full timestamps are accepted and truncated to the day
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t.Year(), t.Month(), t.Day())
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Nights returns the number of nights between check-in and check-out.
func Nights(checkIn, checkOut Date) int {
	return int(checkOut.Sub(checkIn.Time).Hours() / 24)
}

// BookingDraft is the guest input sent to create a booking or to resend its code.
type BookingDraft struct {
	CheckInDate  Date   `json:"checkInDate" validate:"required"`
	CheckOutDate Date   `json:"checkOutDate" validate:"required"`
	FullName     string `json:"fullName" validate:"required,fullname"`
	Email        string `json:"email" validate:"required,email"`
	Tel          string `json:"tel" validate:"required,phone_chars,phone_digits"`
	TotalPrice   int64  `json:"totalPrice" validate:"gte=0"`
	NumOfGuest   int    `json:"numOfGuest" validate:"gte=1"`
	RoomID       string `json:"roomId" validate:"required"`
}

type Booking struct {
	ID            string         `json:"id"`
	RoomID        string         `json:"roomId"`
	CheckInDate   Date           `json:"checkInDate"`
	CheckOutDate  Date           `json:"checkOutDate"`
	FullName      string         `json:"fullName"`
	Email         string         `json:"email"`
	Tel           string         `json:"tel"`
	TotalPrice    int64          `json:"totalPrice"`
	NumOfGuest    int            `json:"numOfGuest"`
	Status        BookingStatus  `json:"status"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ApplyDraft copies the guest supplied fields onto the booking.
func (b *Booking) ApplyDraft(d BookingDraft) {
	b.RoomID = d.RoomID
	b.CheckInDate = d.CheckInDate
	b.CheckOutDate = d.CheckOutDate
	b.FullName = strings.TrimSpace(d.FullName)
	b.Email = strings.TrimSpace(d.Email)
	b.Tel = strings.TrimSpace(d.Tel)
	b.TotalPrice = d.TotalPrice
	b.NumOfGuest = d.NumOfGuest
}

// Stats backs the admin dashboard.
type Stats struct {
	ByStatus         map[BookingStatus]int64 `json:"byStatus"`
	ByPaymentMethod  map[PaymentMethod]int64 `json:"byPaymentMethod"`
	ConfirmedRevenue int64                   `json:"confirmedRevenue"`
	Total            int64                   `json:"total"`
}
