package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/Domenick1991/hotelbooking/internal/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomUnavailable      = errors.New("room is not available for the selected dates")
	ErrInvalidStay          = errors.New("check-out date must be after check-in date")
	ErrCheckInPast          = errors.New("check-in date is in the past")
	ErrCapacityExceeded     = errors.New("number of guests exceeds room capacity")
	ErrPriceMismatch        = errors.New("total price does not match the room rate")
	ErrNotPending           = errors.New("booking is not pending")
	ErrNotConfirmed         = errors.New("booking is not confirmed")
	ErrInvalidCode          = errors.New("invalid confirmation code")
	ErrCodeExpired          = errors.New("confirmation code expired")
	ErrResendCooldown       = errors.New("confirmation code was sent recently")
	ErrTooManyAttempts      = errors.New("too many wrong confirmation codes, request a new code")
	ErrInvalidPaymentMethod = errors.New("payment method must be ONLINE or CASH")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error)
	ResendConfirmationCode(ctx context.Context, id string, draft domain.BookingDraft) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id, code string) (*domain.Booking, error)
	ChangePaymentMethod(ctx context.Context, id string, method domain.PaymentMethod) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

// Cache holds confirmation code hashes, wrong code counters and resend
// cooldowns. Storing or deleting a code also resets its counter.
type Cache interface {
	StoreConfirmationCode(ctx context.Context, bookingID, hash string, ttl time.Duration) error
	GetConfirmationCode(ctx context.Context, bookingID string) (string, bool, error)
	DeleteConfirmationCode(ctx context.Context, bookingID string) error
	RecordFailedAttempt(ctx context.Context, bookingID string, ttl time.Duration) (int64, error)
	AcquireResendCooldown(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ReleaseResendCooldown(ctx context.Context, bookingID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	rooms              repository.RoomRepository
	cache              Cache
	producer           Producer
	validator          *validation.Validator
	log                *logrus.Entry
	bookingTopic       string
	notificationsTopic string
	confirmationTTL    time.Duration
	resendCooldown     time.Duration
	maxCodeAttempts    int64
	bcryptCost         int
	now                func() time.Time
	newCode            func() (string, error)
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithResendCooldown(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.resendCooldown = d
	}
}

// WithMaxCodeAttempts sets how many wrong codes invalidate the current code.
func WithMaxCodeAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxCodeAttempts = int64(n)
		}
	}
}

func WithLogger(log *logrus.Entry) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithCodeGenerator(gen func() (string, error)) BookingServiceOption {
	return func(s *BookingService) {
		s.newCode = gen
	}
}

func WithBcryptCost(cost int) BookingServiceOption {
	return func(s *BookingService) {
		s.bcryptCost = cost
	}
}

const DefaultMaxCodeAttempts = 5

func NewBookingService(
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	confirmationTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		rooms:           rooms,
		cache:           cache,
		producer:        producer,
		validator:       validation.New(),
		log:             logrus.NewEntry(logrus.StandardLogger()),
		bookingTopic:    bookingTopic,
		confirmationTTL: confirmationTTL,
		resendCooldown:  time.Minute,
		maxCodeAttempts: DefaultMaxCodeAttempts,
		bcryptCost:      bcrypt.DefaultCost,
		now:             time.Now,
		newCode:         GenerateCode,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking stores a PENDING booking for the draft and e-mails a
// confirmation code to the guest.
func (s *BookingService) CreateBooking(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error) {
	if err := s.validateDraft(draft); err != nil {
		return nil, err
	}
	room, err := s.roomFor(ctx, draft)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:        uuid.NewString(),
		ExpiresAt: s.now().Add(s.confirmationTTL),
	}
	booking.ApplyDraft(draft)
	booking.TotalPrice = room.Quote(draft.CheckInDate, draft.CheckOutDate)

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, mapRepoError(err)
	}
	log := s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "room_id": booking.RoomID})
	log.Info("pending booking created")

	if err := s.publish(ctx, kafka.EventBookingCreated, booking); err != nil {
		log.WithError(err).Warn("failed to publish booking_created event")
	}

	if _, err := s.cache.AcquireResendCooldown(ctx, booking.ID, s.resendCooldown); err != nil {
		log.WithError(err).Warn("failed to start resend cooldown")
	}
	if err := s.issueCode(ctx, booking); err != nil {
		s.abandon(ctx, log, booking.ID)
		return nil, err
	}
	return booking, nil
}

// abandon cancels a booking whose code never reached the guest so the dates
// are not held until expiry.
func (s *BookingService) abandon(ctx context.Context, log *logrus.Entry, id string) {
	if _, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled); err != nil {
		log.WithError(err).Error("failed to cancel booking without confirmation code")
	}
	if err := s.cache.DeleteConfirmationCode(ctx, id); err != nil {
		log.WithError(err).Warn("failed to delete confirmation code")
	}
	if err := s.cache.ReleaseResendCooldown(ctx, id); err != nil {
		log.WithError(err).Warn("failed to release resend cooldown")
	}
	log.Warn("booking cancelled, confirmation code was not sent")
}

// ResendConfirmationCode replaces the code of a pending booking. The stay in
// the draft is applied again and the booking expiry is extended.
func (s *BookingService) ResendConfirmationCode(ctx context.Context, id string, draft domain.BookingDraft) (*domain.Booking, error) {
	if err := s.validateDraft(draft); err != nil {
		return nil, err
	}
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, ErrNotPending
	}
	if draft.RoomID != booking.RoomID {
		return nil, fmt.Errorf("%w: room cannot change after the booking was created", ErrValidation)
	}
	room, err := s.roomFor(ctx, draft)
	if err != nil {
		return nil, err
	}

	ok, err := s.cache.AcquireResendCooldown(ctx, id, s.resendCooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResendCooldown
	}

	booking.CheckInDate = draft.CheckInDate
	booking.CheckOutDate = draft.CheckOutDate
	booking.NumOfGuest = draft.NumOfGuest
	booking.TotalPrice = room.Quote(draft.CheckInDate, draft.CheckOutDate)
	booking.ExpiresAt = s.now().Add(s.confirmationTTL)

	if err := s.bookings.RefreshPending(ctx, booking); err != nil {
		_ = s.cache.ReleaseResendCooldown(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotPending
		}
		return nil, mapRepoError(err)
	}
	if err := s.issueCode(ctx, booking); err != nil {
		_ = s.cache.ReleaseResendCooldown(ctx, id)
		return nil, err
	}
	s.log.WithField("booking_id", id).Info("confirmation code resent")
	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id, code string) (*domain.Booking, error) {
	if !validation.ValidCode(code) {
		return nil, fmt.Errorf("%w: confirmation code must be exactly %d digits", ErrValidation, validation.CodeLength)
	}
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, ErrNotPending
	}
	if !s.now().Before(current.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	hash, ok, err := s.cache.GetConfirmationCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return nil, s.rejectCode(ctx, id)
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.cache.DeleteConfirmationCode(ctx, id); err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("failed to delete confirmation code")
	}
	if err := s.publish(ctx, kafka.EventBookingConfirmed, updated); err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("failed to publish booking_confirmed event")
	}
	return updated, nil
}

func (s *BookingService) ChangePaymentMethod(ctx context.Context, id string, method domain.PaymentMethod) (*domain.Booking, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusConfirmed {
		return nil, ErrNotConfirmed
	}
	if current.PaymentMethod != nil && *current.PaymentMethod == method {
		return current, nil
	}

	updated, err := s.bookings.UpdatePaymentMethod(ctx, id, method)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotConfirmed
		}
		return nil, err
	}
	if err := s.publish(ctx, kafka.EventPaymentMethodSelected, updated); err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("failed to publish payment_method_selected event")
	}
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBookingNotFound
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled || current.Status == domain.BookingStatusExpired {
		return current, nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled)
	if err != nil {
		return nil, mapRepoError(err)
	}
	_ = s.cache.DeleteConfirmationCode(ctx, id)
	if err := s.publish(ctx, kafka.EventBookingCancelled, updated); err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("failed to publish booking_cancelled event")
	}
	return updated, nil
}

// ExpirePendingBookings marks every pending booking past its expiry as
// EXPIRED and drops its code.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		b := &expired[i]
		_ = s.cache.DeleteConfirmationCode(ctx, b.ID)
		if err := s.publish(ctx, kafka.EventBookingExpired, b); err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("failed to publish booking_expired event")
		}
	}
	return expired, nil
}

func (s *BookingService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.bookings.Stats(ctx)
}

func (s *BookingService) validateDraft(draft domain.BookingDraft) error {
	if err := s.validator.Struct(draft); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, validation.Message(err))
	}
	if domain.Nights(draft.CheckInDate, draft.CheckOutDate) < 1 {
		return ErrInvalidStay
	}
	now := s.now().UTC()
	today := domain.NewDate(now.Year(), now.Month(), now.Day())
	if draft.CheckInDate.Before(today.Time) {
		return ErrCheckInPast
	}
	return nil
}

func (s *BookingService) roomFor(ctx context.Context, draft domain.BookingDraft) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, draft.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if draft.NumOfGuest > room.Capacity {
		return nil, ErrCapacityExceeded
	}
	if quote := room.Quote(draft.CheckInDate, draft.CheckOutDate); draft.TotalPrice != quote {
		return nil, fmt.Errorf("%w: expected %d", ErrPriceMismatch, quote)
	}
	return room, nil
}

// rejectCode counts a wrong code and drops the stored code once the limit is
// reached. The guest then has to request a new one.
func (s *BookingService) rejectCode(ctx context.Context, id string) error {
	log := s.log.WithField("booking_id", id)
	attempts, err := s.cache.RecordFailedAttempt(ctx, id, s.confirmationTTL)
	if err != nil {
		log.WithError(err).Warn("failed to count wrong confirmation code")
		return ErrInvalidCode
	}
	log = log.WithField("attempts", attempts)
	if attempts < s.maxCodeAttempts {
		log.Info("wrong confirmation code")
		return ErrInvalidCode
	}
	if err := s.cache.DeleteConfirmationCode(ctx, id); err != nil {
		log.WithError(err).Error("failed to invalidate confirmation code")
	}
	log.Warn("confirmation code invalidated after too many wrong attempts")
	return ErrTooManyAttempts
}

// issueCode stores the hash of a fresh code and sends the code to the guest.
func (s *BookingService) issueCode(ctx context.Context, booking *domain.Booking) error {
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash confirmation code: %w", err)
	}
	if err := s.cache.StoreConfirmationCode(ctx, booking.ID, string(hash), s.confirmationTTL); err != nil {
		return fmt.Errorf("store confirmation code: %w", err)
	}

	if s.producer == nil || s.notificationsTopic == "" {
		s.log.WithField("booking_id", booking.ID).Warn("no notifications topic, confirmation code not sent")
		return nil
	}
	event := newEvent(kafka.EventConfirmationCode, booking)
	event.Code = code
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := newEvent(eventType, booking)
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" && eventType != kafka.EventBookingCreated {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func newEvent(eventType string, booking *domain.Booking) kafka.BookingEvent {
	event := kafka.BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		RoomID:       booking.RoomID,
		FullName:     booking.FullName,
		Email:        booking.Email,
		Status:       string(booking.Status),
		CheckInDate:  booking.CheckInDate.String(),
		CheckOutDate: booking.CheckOutDate.String(),
		TotalPrice:   booking.TotalPrice,
		NumOfGuest:   booking.NumOfGuest,
		ExpiresAt:    booking.ExpiresAt,
	}
	if booking.PaymentMethod != nil {
		event.PaymentMethod = string(*booking.PaymentMethod)
	}
	return event
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomUnavailable):
		return ErrRoomUnavailable
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	default:
		return err
	}
}

// GenerateCode returns six random decimal digits.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

var _ BookingUseCase = (*BookingService)(nil)
