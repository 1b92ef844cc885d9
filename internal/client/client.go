package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
)

type Client struct {
	httpClient HTTPClient
	baseURL    string
	userAgent  string
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Option func(*Client)

// APIError carries the message the booking API attached to a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking api: unexpected status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrBadStatusCode
}

var (
	ErrNotFound      = errors.New("booking not found")
	ErrBadStatusCode = errors.New("invalid status code from booking api")
	ErrEmptyID       = errors.New("booking id cannot be empty")
)

type createBookingResponse struct {
	ID string `json:"id"`
}

type paymentMethodRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "http://localhost:8080/api",
		userAgent:  "hotelbooking-guest/1.0",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CreateBooking submits the draft and returns the id of the pending booking.
// The API e-mails the confirmation code as a side effect.
func (c *Client) CreateBooking(ctx context.Context, draft domain.BookingDraft) (string, error) {
	var resp createBookingResponse
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, draft, http.StatusCreated, &resp); err != nil {
		return "", fmt.Errorf("create booking: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create booking: %w", ErrEmptyID)
	}
	return resp.ID, nil
}

func (c *Client) ResendConfirmationCode(ctx context.Context, bookingID string, draft domain.BookingDraft) error {
	if bookingID == "" {
		return ErrEmptyID
	}
	path := fmt.Sprintf("/bookings/%s/resend-code", url.PathEscape(bookingID))
	if err := c.do(ctx, http.MethodPost, path, nil, draft, http.StatusOK, nil); err != nil {
		return fmt.Errorf("resend confirmation code: %w", err)
	}
	return nil
}

// ConfirmBooking sends the code as the confirmationCode query parameter.
func (c *Client) ConfirmBooking(ctx context.Context, bookingID, code string) error {
	if bookingID == "" {
		return ErrEmptyID
	}
	path := fmt.Sprintf("/bookings/%s/confirm", url.PathEscape(bookingID))
	query := url.Values{"confirmationCode": []string{code}}
	if err := c.do(ctx, http.MethodPut, path, query, nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	return nil
}

// ChangePaymentMethod selects the payment path and returns the method the
// API recorded.
func (c *Client) ChangePaymentMethod(ctx context.Context, bookingID string, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	if bookingID == "" {
		return "", ErrEmptyID
	}
	path := fmt.Sprintf("/bookings/%s/payment-method", url.PathEscape(bookingID))
	var chosen domain.PaymentMethod
	if err := c.do(ctx, http.MethodPut, path, nil, paymentMethodRequest{PaymentMethod: method}, http.StatusOK, &chosen); err != nil {
		return "", fmt.Errorf("change payment method: %w", err)
	}
	return chosen, nil
}

func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, nil, http.StatusOK, &rooms); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in interface{}, want int, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Message = er.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
