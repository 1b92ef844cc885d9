package bookingflow

import (
	"context"
	"io"
	"sync"

	"github.com/Domenick1991/hotelbooking/internal/countdown"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateBooking(ctx context.Context, draft domain.BookingDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) ResendConfirmationCode(ctx context.Context, bookingID string, draft domain.BookingDraft) error {
	args := m.Called(ctx, bookingID, draft)
	return args.Error(0)
}

func (m *MockAPI) ConfirmBooking(ctx context.Context, bookingID, code string) error {
	args := m.Called(ctx, bookingID, code)
	return args.Error(0)
}

func (m *MockAPI) ChangePaymentMethod(ctx context.Context, bookingID string, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	args := m.Called(ctx, bookingID, method)
	return args.Get(0).(domain.PaymentMethod), args.Error(1)
}

type MockModal struct {
	mock.Mock
}

func (m *MockModal) Open(ctx context.Context, bookingID string, customer CustomerInfo) error {
	args := m.Called(ctx, bookingID, customer)
	return args.Error(0)
}

type toast struct {
	ok  bool
	msg string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{ok: true, msg: msg})
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{ok: false, msg: msg})
}

func (n *recordingNotifier) last() toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return toast{}
	}
	return n.toasts[len(n.toasts)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.toasts)
}

type recordingRedirector struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRedirector) Redirect(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testSelection() Selection {
	return Selection{
		RoomID:       "R1",
		CheckInDate:  domain.NewDate(2026, 11, 1),
		CheckOutDate: domain.NewDate(2026, 11, 3),
		TotalPrice:   200,
		NumOfGuest:   2,
	}
}

func testDraft() domain.BookingDraft {
	return domain.BookingDraft{
		CheckInDate:  domain.NewDate(2026, 11, 1),
		CheckOutDate: domain.NewDate(2026, 11, 3),
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		Tel:          "555-123-4567",
		TotalPrice:   200,
		NumOfGuest:   2,
		RoomID:       "R1",
	}
}

type fixture struct {
	api        *MockAPI
	modal      *MockModal
	notifier   *recordingNotifier
	redirector *recordingRedirector
	session    *Session
}

func newFixture(opts ...func(*Config)) *fixture {
	f := &fixture{
		api:        &MockAPI{},
		modal:      &MockModal{},
		notifier:   &recordingNotifier{},
		redirector: &recordingRedirector{},
	}
	cfg := Config{
		API:          f.api,
		Notifier:     f.notifier,
		Modal:        f.modal,
		Redirector:   f.redirector,
		Selection:    testSelection(),
		TimerOptions: []countdown.Option{countdown.WithInterval(0)},
		Logger:       quietLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.session = NewSession(cfg)
	return f
}

func (f *fixture) fillGuest() {
	form := f.session.Form()
	form.SetField("fullName", "Jane Doe")
	form.SetField("email", "jane@example.com")
	form.SetField("tel", "555-123-4567")
}

func (f *fixture) drainCooldown() {
	for f.session.Timer().Tick() {
	}
}
