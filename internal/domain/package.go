package domain

import "time"

// LessonPackage is a purchasable offer published by an instructor,
// independent of any student.
type LessonPackage struct {
	ID              int64
	InstructorID    int64
	Name            string
	TotalLessons    int
	VehicleType     VehicleType
	TotalPriceCents int64
	DiscountPercent int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PackageStatus string

const (
	PackageStatusPending   PackageStatus = "PENDING"
	PackageStatusActive    PackageStatus = "ACTIVE"
	PackageStatusCompleted PackageStatus = "COMPLETED"
)

// ReconcileMode selects how a paid purchase is folded into the
// student's existing ledger at checkout.
type ReconcileMode string

const (
	// ReconcileStandard activates the new package as-is.
	ReconcileStandard ReconcileMode = "STANDARD"
	// ReconcileSum merges the new package's lesson count into an
	// existing package and retires the new record.
	ReconcileSum ReconcileMode = "SUM"
	// ReconcileSwitch retires the old package, abandoning its
	// remaining balance, and activates the new one.
	ReconcileSwitch ReconcileMode = "SWITCH"
)

// StudentPackage is a consumable balance of lessons tied to one
// student-instructor pair. LessonsUsed never exceeds LessonsTotal.
type StudentPackage struct {
	ID             int64
	StudentID      int64
	InstructorID   int64
	PackageID      *int64
	LessonsTotal   int
	LessonsUsed    int
	VehicleType    VehicleType
	TotalPaidCents int64
	Status         PackageStatus
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// LessonsLeft is the remaining consumable balance.
func (p *StudentPackage) LessonsLeft() int {
	return p.LessonsTotal - p.LessonsUsed
}
