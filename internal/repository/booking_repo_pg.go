package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrRoomUnavailable = errors.New("room is not available for the selected dates")
)

// DBConn is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DBConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	RefreshPending(ctx context.Context, booking *domain.Booking) error
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	UpdatePaymentMethod(ctx context.Context, id string, method domain.PaymentMethod) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type PGBookingRepository struct {
	db DBConn
}

func NewBookingRepository(db DBConn) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, room_id, check_in_date, check_out_date, full_name, email, tel, total_price, num_of_guest, status, payment_method, expires_at, created_at, updated_at`

const (
	lockRoomSQL = `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`

	// Half-open stays: a checkout day may be the next guest's check-in day.
	overlapSQL = `SELECT EXISTS (SELECT 1 FROM bookings WHERE room_id=$1 AND id<>$2 AND status IN ($3, $4) AND check_in_date < $6 AND check_out_date > $5)`

	insertBookingSQL = `INSERT INTO bookings (id, room_id, check_in_date, check_out_date, full_name, email, tel, total_price, num_of_guest, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	refreshBookingSQL = `UPDATE bookings SET check_in_date=$2, check_out_date=$3, total_price=$4, num_of_guest=$5, expires_at=$6, updated_at=now()
		WHERE id=$1 AND status=$7
		RETURNING updated_at`
)

// CreatePending inserts a PENDING booking. The room row is locked so two
// guests cannot both pass the overlap check for the same dates.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockRoomAndCheckOverlap(ctx, tx, booking); err != nil {
		return err
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, insertBookingSQL,
		booking.ID, booking.RoomID, booking.CheckInDate.Time, booking.CheckOutDate.Time,
		booking.FullName, booking.Email, booking.Tel, booking.TotalPrice, booking.NumOfGuest,
		booking.Status, booking.ExpiresAt,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RefreshPending rewrites the stay of a pending booking and extends its
// expiry, rechecking availability against other bookings.
func (r *PGBookingRepository) RefreshPending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockRoomAndCheckOverlap(ctx, tx, booking); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, refreshBookingSQL,
		booking.ID, booking.CheckInDate.Time, booking.CheckOutDate.Time,
		booking.TotalPrice, booking.NumOfGuest, booking.ExpiresAt, domain.BookingStatusPending,
	).Scan(&booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return tx.Commit(ctx)
}

func lockRoomAndCheckOverlap(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	var roomID string
	if err := tx.QueryRow(ctx, lockRoomSQL, booking.RoomID).Scan(&roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("room %s: %w", booking.RoomID, ErrNotFound)
		}
		return err
	}

	var taken bool
	if err := tx.QueryRow(ctx, overlapSQL,
		booking.RoomID, booking.ID, domain.BookingStatusPending, domain.BookingStatusConfirmed,
		booking.CheckInDate.Time, booking.CheckOutDate.Time,
	).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return ErrRoomUnavailable
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id)
	return scanBooking(row)
}

// UpdatePaymentMethod only touches confirmed bookings.
func (r *PGBookingRepository) UpdatePaymentMethod(ctx context.Context, id string, method domain.PaymentMethod) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET payment_method=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns,
		string(method), id, domain.BookingStatusConfirmed)
	return scanBooking(row)
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE status=$2 AND expires_at <= $3 RETURNING `+bookingColumns,
		domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func (r *PGBookingRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	rows, err := r.db.Query(ctx, `SELECT status, payment_method, COUNT(*), COALESCE(SUM(total_price), 0) FROM bookings GROUP BY status, payment_method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.Stats{
		ByStatus:        map[domain.BookingStatus]int64{},
		ByPaymentMethod: map[domain.PaymentMethod]int64{},
	}
	for rows.Next() {
		var (
			status  domain.BookingStatus
			method  *string
			count   int64
			revenue int64
		)
		if err := rows.Scan(&status, &method, &count, &revenue); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		if method != nil {
			stats.ByPaymentMethod[domain.PaymentMethod(*method)] += count
		}
		if status == domain.BookingStatusConfirmed {
			stats.ConfirmedRevenue += revenue
		}
	}
	return stats, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		method *string
	)
	err := row.Scan(
		&b.ID, &b.RoomID, &b.CheckInDate.Time, &b.CheckOutDate.Time,
		&b.FullName, &b.Email, &b.Tel, &b.TotalPrice, &b.NumOfGuest,
		&b.Status, &method, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if method != nil {
		pm := domain.PaymentMethod(*method)
		b.PaymentMethod = &pm
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
