package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/kafka"
	"github.com/avilov/drivebook/internal/repository"
	"github.com/avilov/drivebook/internal/schedule"
	"github.com/google/uuid"
)

var (
	// ErrSlotHeld is returned while another student's checkout holds
	// the slot. Distinct from repository.ErrSlotTaken, which means a
	// booking already exists.
	ErrSlotHeld       = errors.New("slot is temporarily held by another checkout")
	ErrSlotNotOffered = errors.New("slot is not offered on this date")
	ErrNotPending     = errors.New("booking is not pending")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, token string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, token string) (*domain.Booking, error)
	MarkPaid(ctx context.Context, token string) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

// Ledger is the slice of the package service the booking flow needs.
type Ledger interface {
	ConsumeLesson(ctx context.Context, studentPackageID int64) error
	RefundLesson(ctx context.Context, studentPackageID int64) error
}

type Cache interface {
	AcquireSlotHold(ctx context.Context, instructorID int64, date time.Time, hour int, ttl time.Duration) (bool, error)
	ReleaseSlotHold(ctx context.Context, instructorID int64, date time.Time, hour int) error
	InvalidateDaySlots(ctx context.Context, instructorID int64, date time.Time) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	windows            repository.AvailabilityRepository
	ledger             Ledger
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdTTL            time.Duration
	pendingTTL         time.Duration
	feePercent         int
	now                func() time.Time
}

type CreateBookingInput struct {
	StudentID        int64              `json:"student_id"`
	InstructorID     int64              `json:"instructor_id"`
	Date             time.Time          `json:"date"`
	Hour             int                `json:"hour"`
	VehicleType      domain.VehicleType `json:"vehicle_type"`
	PriceCents       int64              `json:"price_cents"`
	StudentPackageID *int64             `json:"student_package_id,omitempty"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	windows repository.AvailabilityRepository,
	ledger Ledger,
	cache Cache,
	producer Producer,
	eventsTopic string,
	holdTTL, pendingTTL time.Duration,
	feePercent int,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		windows:     windows,
		ledger:      ledger,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
		holdTTL:     holdTTL,
		pendingTTL:  pendingTTL,
		feePercent:  feePercent,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (input CreateBookingInput) validate() error {
	if input.StudentID <= 0 {
		return errors.New("student id is required")
	}
	if input.InstructorID <= 0 {
		return errors.New("instructor id is required")
	}
	if input.Hour < 0 || input.Hour > 23 {
		return errors.New("hour must be between 0 and 23")
	}
	if input.VehicleType != domain.VehicleInstructor && input.VehicleType != domain.VehicleStudent {
		return errors.New("vehicle type must be INSTRUCTOR or STUDENT")
	}
	if input.StudentPackageID == nil && input.PriceCents <= 0 {
		return errors.New("price is required for direct payment")
	}
	return nil
}

// CreateBooking books one hour slot. The availability check here is a
// courtesy rejection; the unique index on (instructor, date, hour) is
// what actually prevents a double booking under race.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	if err := s.checkSlotOffered(ctx, input); err != nil {
		return nil, err
	}

	held := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSlotHold(ctx, input.InstructorID, input.Date, input.Hour, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSlotHeld
		}
		held = true
	}

	fee := input.PriceCents * int64(s.feePercent) / 100
	booking := &domain.Booking{
		Token:            uuid.NewString(),
		StudentID:        input.StudentID,
		InstructorID:     input.InstructorID,
		ScheduledDate:    input.Date,
		ScheduledHour:    input.Hour,
		DurationMinutes:  60,
		VehicleType:      input.VehicleType,
		PriceCents:       input.PriceCents,
		PlatformFeeCents: fee,
		InstructorCents:  input.PriceCents - fee,
		StudentPackageID: input.StudentPackageID,
		ExpiresAt:        s.now().Add(s.pendingTTL),
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if held {
			_ = s.cache.ReleaseSlotHold(ctx, input.InstructorID, input.Date, input.Hour)
		}
		return nil, err
	}

	if booking.PaidWithPackage() {
		if err := s.consumeFromPackage(ctx, booking); err != nil {
			if held {
				_ = s.cache.ReleaseSlotHold(ctx, input.InstructorID, input.Date, input.Hour)
			}
			return nil, err
		}
	}

	s.invalidateDay(ctx, booking)
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// consumeFromPackage deducts one lesson and marks the booking paid. If
// either step fails the just-created booking is cancelled and any
// deducted lesson returned, so no slot stays occupied without a funded
// lesson and no lesson stays consumed against a dead booking.
func (s *BookingService) consumeFromPackage(ctx context.Context, booking *domain.Booking) error {
	if err := s.ledger.ConsumeLesson(ctx, *booking.StudentPackageID); err != nil {
		if _, cancelErr := s.bookings.UpdateStatus(ctx, booking.Token, domain.BookingStatusCancelled); cancelErr != nil {
			return fmt.Errorf("cancel booking after consume failure: %w (consume: %w)", cancelErr, err)
		}
		return err
	}

	paid, err := s.bookings.UpdatePaymentStatus(ctx, booking.Token, domain.PaymentStatusPaid)
	if err != nil {
		if refundErr := s.ledger.RefundLesson(ctx, *booking.StudentPackageID); refundErr != nil {
			return fmt.Errorf("refund lesson after mark-paid failure: %w (mark paid: %w)", refundErr, err)
		}
		if _, cancelErr := s.bookings.UpdateStatus(ctx, booking.Token, domain.BookingStatusCancelled); cancelErr != nil {
			return fmt.Errorf("cancel booking after mark-paid failure: %w (mark paid: %w)", cancelErr, err)
		}
		return err
	}
	*booking = *paid
	return nil
}

func (s *BookingService) checkSlotOffered(ctx context.Context, input CreateBookingInput) error {
	windows, err := s.windows.ListByInstructor(ctx, input.InstructorID)
	if err != nil {
		return err
	}
	booked, err := s.bookings.ListForInstructorDate(ctx, input.InstructorID, input.Date)
	if err != nil {
		return err
	}

	slots := schedule.AvailableSlots(input.Date, windows, booked, s.now())
	for _, slot := range slots.Slots {
		if slot.Hour == input.Hour {
			return nil
		}
	}
	return ErrSlotNotOffered
}

func (s *BookingService) ConfirmBooking(ctx context.Context, token string) (*domain.Booking, error) {
	current, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, ErrNotPending
	}

	updated, err := s.bookings.UpdateStatus(ctx, token, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.releaseHold(ctx, updated)
	s.publish(ctx, "booking_confirmed", updated)
	return updated, nil
}

// CancelBooking is a status transition, never a delete. A lesson
// consumed from a package goes back to the ledger; a directly paid
// booking is marked refunded for the payment layer to settle.
func (s *BookingService) CancelBooking(ctx context.Context, token string) (*domain.Booking, error) {
	current, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, token, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	if updated.PaymentStatus == domain.PaymentStatusPaid {
		if updated.PaidWithPackage() {
			if err := s.ledger.RefundLesson(ctx, *updated.StudentPackageID); err != nil {
				return nil, fmt.Errorf("refund lesson: %w", err)
			}
		}
		updated, err = s.bookings.UpdatePaymentStatus(ctx, token, domain.PaymentStatusRefunded)
		if err != nil {
			return nil, err
		}
	}

	s.releaseHold(ctx, updated)
	s.invalidateDay(ctx, updated)
	s.publish(ctx, "booking_cancelled", updated)
	return updated, nil
}

// MarkPaid records a successful direct payment reported by the
// surrounding application.
func (s *BookingService) MarkPaid(ctx context.Context, token string) (*domain.Booking, error) {
	current, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending && current.Status != domain.BookingStatusConfirmed {
		return nil, ErrNotPending
	}

	updated, err := s.bookings.UpdatePaymentStatus(ctx, token, domain.PaymentStatusPaid)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "booking_paid", updated)
	return updated, nil
}

// ExpirePendingBookings cancels pending unpaid bookings whose hold ran
// out. Package-funded bookings are paid at creation and never expire.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, b := range expired {
		s.releaseHold(ctx, &b)
		s.invalidateDay(ctx, &b)
		s.publish(ctx, "booking_expired", &b)
	}
	return expired, nil
}

func (s *BookingService) releaseHold(ctx context.Context, b *domain.Booking) {
	if s.cache != nil {
		_ = s.cache.ReleaseSlotHold(ctx, b.InstructorID, b.ScheduledDate, b.ScheduledHour)
	}
}

func (s *BookingService) invalidateDay(ctx context.Context, b *domain.Booking) {
	if s.cache != nil {
		_ = s.cache.InvalidateDaySlots(ctx, b.InstructorID, b.ScheduledDate)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.LessonEvent{
		Type:          eventType,
		BookingToken:  booking.Token,
		StudentID:     booking.StudentID,
		InstructorID:  booking.InstructorID,
		ScheduledDate: booking.ScheduledDate.Format("2006-01-02"),
		ScheduledHour: booking.ScheduledHour,
		Status:        string(booking.Status),
		OccurredAt:    time.Now(),
	}
	if booking.StudentPackageID != nil {
		event.StudentPackageID = *booking.StudentPackageID
	}
	_ = s.producer.Publish(ctx, s.eventsTopic, booking.Token, event)
	if s.notificationsTopic != "" {
		_ = s.producer.Publish(ctx, s.notificationsTopic, booking.Token, event)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
