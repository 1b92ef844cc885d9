package bookingflow

import (
	"context"
	"sync"

	"github.com/Domenick1991/hotelbooking/internal/countdown"
	"github.com/sirupsen/logrus"
)

type Config struct {
	API        API
	Notifier   Notifier
	Modal      PaymentModal
	Redirector Redirector

	Selection Selection
	Prefill   *Prefill
	// CodeFilter overrides the digits-only confirmation code filter.
	CodeFilter func(string) string

	TimerOptions []countdown.Option
	// CooldownSeconds defaults to countdown.DefaultCooldown.
	CooldownSeconds int

	Logger *logrus.Logger
}

// Session owns one booking flow from guest details to payment selection.
type Session struct {
	cfg       Config
	log       *logrus.Entry
	timer     *countdown.Timer
	mutations *Mutations
	form      *Form

	mu      sync.Mutex
	payment *PaymentSelector
}

func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithFields(logrus.Fields{
		"component": "bookingflow",
		"room_id":   cfg.Selection.RoomID,
	})

	cooldown := cfg.CooldownSeconds
	if cooldown <= 0 {
		cooldown = countdown.DefaultCooldown
	}

	timer := countdown.New(cfg.TimerOptions...)
	mutations := NewMutations(cfg.API, cfg.Notifier, timer, WithCooldown(cooldown), WithLogger(log))

	var formOpts []FormOption
	if cfg.Prefill != nil {
		formOpts = append(formOpts, WithPrefill(*cfg.Prefill))
	}
	if cfg.CodeFilter != nil {
		formOpts = append(formOpts, WithCodeFilter(cfg.CodeFilter))
	}

	return &Session{
		cfg:       cfg,
		log:       log,
		timer:     timer,
		mutations: mutations,
		form:      NewForm(cfg.Selection, mutations, formOpts...),
	}
}

func (s *Session) Form() *Form {
	return s.form
}

func (s *Session) Timer() *countdown.Timer {
	return s.timer
}

func (s *Session) SendCode(ctx context.Context) (Result, error) {
	return s.form.SendCode(ctx)
}

// Submit confirms the booking and, on success, opens the payment step.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	res, err := s.form.Submit(ctx)
	if err != nil || !res.OK() {
		return res, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		s.payment = NewPaymentSelector(
			s.cfg.API,
			s.cfg.Notifier,
			s.cfg.Modal,
			s.cfg.Redirector,
			res.BookingID,
			s.form.CustomerInfo(),
			WithPaymentLogger(s.log),
		)
	}
	return res, nil
}

// Payment returns the payment selector, or nil before confirmation.
func (s *Session) Payment() *PaymentSelector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payment
}

// Close stops the cooldown ticker. Calls still in flight complete but their
// outcome is no longer observed.
func (s *Session) Close() {
	s.timer.Stop()
}
