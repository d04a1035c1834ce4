package repository

import (
	"context"
	"errors"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	ListForInstructorDate(ctx context.Context, instructorID int64, date time.Time) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, token string, status domain.BookingStatus) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, token string, status domain.PaymentStatus) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, token, student_id, instructor_id, scheduled_date, scheduled_hour, duration_minutes, vehicle_type, price_cents, platform_fee_cents, instructor_cents, status, payment_status, student_package_id, expires_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Token, &b.StudentID, &b.InstructorID, &b.ScheduledDate, &b.ScheduledHour,
		&b.DurationMinutes, &b.VehicleType, &b.PriceCents, &b.PlatformFeeCents, &b.InstructorCents,
		&b.Status, &b.PaymentStatus, &b.StudentPackageID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	booking.PaymentStatus = domain.PaymentStatusPending

	err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(token, student_id, instructor_id, scheduled_date, scheduled_hour, duration_minutes, vehicle_type,
		 price_cents, platform_fee_cents, instructor_cents, status, payment_status, student_package_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		booking.Token, booking.StudentID, booking.InstructorID, booking.ScheduledDate, booking.ScheduledHour,
		booking.DurationMinutes, booking.VehicleType, booking.PriceCents, booking.PlatformFeeCents,
		booking.InstructorCents, booking.Status, booking.PaymentStatus, booking.StudentPackageID, booking.ExpiresAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE token=$1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) ListForInstructorDate(ctx context.Context, instructorID int64, date time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE instructor_id=$1 AND scheduled_date=$2 AND status <> $3
		ORDER BY scheduled_hour`, instructorID, date, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, token string, status domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE token=$2 RETURNING `+bookingColumns, status, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) UpdatePaymentStatus(ctx context.Context, token string, status domain.PaymentStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE token=$2 RETURNING `+bookingColumns, status, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ExpirePendingBefore cancels pending unpaid bookings whose hold expired
// before the deadline and returns them for event publication.
func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status=$2 AND payment_status=$3 AND expires_at <= $4
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, domain.BookingStatusPending, domain.PaymentStatusPending, deadline)
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

var _ BookingRepository = (*PGBookingRepository)(nil)
