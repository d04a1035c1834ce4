package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

type VehicleType string

const (
	VehicleInstructor VehicleType = "INSTRUCTOR"
	VehicleStudent    VehicleType = "STUDENT"
)

type Booking struct {
	ID               int64
	Token            string
	StudentID        int64
	InstructorID     int64
	ScheduledDate    time.Time
	ScheduledHour    int
	DurationMinutes  int
	VehicleType      VehicleType
	PriceCents       int64
	PlatformFeeCents int64
	InstructorCents  int64
	Status           BookingStatus
	PaymentStatus    PaymentStatus
	StudentPackageID *int64
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PaidWithPackage reports whether the booking consumes a lesson from a
// student package instead of being paid directly.
func (b *Booking) PaidWithPackage() bool {
	return b.StudentPackageID != nil
}
