package packages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/kafka"
	"github.com/avilov/drivebook/internal/repository"
)

var (
	ErrTemplateInactive = errors.New("lesson package is no longer offered")
	// ErrOldPackageRequired is returned when a sum or switch
	// reconciliation arrives without the package being replaced or
	// topped up.
	ErrOldPackageRequired = errors.New("old package id is required for this mode")
	ErrUnknownMode        = errors.New("unknown reconcile mode")
	// ErrPackageMismatch is returned when the referenced old package
	// belongs to a different student-instructor pair.
	ErrPackageMismatch = errors.New("packages belong to different student-instructor pairs")
)

type PackageUseCase interface {
	ListTemplates(ctx context.Context, instructorID int64) ([]domain.LessonPackage, error)
	Purchase(ctx context.Context, input PurchaseInput) (*domain.StudentPackage, error)
	ConfirmPurchase(ctx context.Context, input ConfirmPurchaseInput) (*domain.StudentPackage, error)
	ActivePackage(ctx context.Context, studentID, instructorID int64) (*domain.StudentPackage, error)
	ConsumeLesson(ctx context.Context, studentPackageID int64) error
	RefundLesson(ctx context.Context, studentPackageID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PackageService struct {
	packages           repository.PackageRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
}

type PackageServiceOption func(*PackageService)

func WithNotificationsTopic(topic string) PackageServiceOption {
	return func(s *PackageService) {
		s.notificationsTopic = topic
	}
}

func NewPackageService(packages repository.PackageRepository, producer Producer, eventsTopic string, opts ...PackageServiceOption) *PackageService {
	service := &PackageService{
		packages:    packages,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type PurchaseInput struct {
	StudentID int64 `json:"student_id"`
	PackageID int64 `json:"package_id"`
}

// ConfirmPurchaseInput arrives once per checkout, after the payment is
// captured. A failure past this point has no compensating transaction
// and is surfaced verbatim for operator intervention.
type ConfirmPurchaseInput struct {
	StudentPackageID int64                `json:"student_package_id"`
	Mode             domain.ReconcileMode `json:"mode"`
	OldPackageID     *int64               `json:"old_package_id,omitempty"`
}

func (s *PackageService) ListTemplates(ctx context.Context, instructorID int64) ([]domain.LessonPackage, error) {
	return s.packages.ListTemplates(ctx, instructorID)
}

// Purchase records purchase intent: a pending student package shaped
// after the template. It becomes consumable only after ConfirmPurchase.
func (s *PackageService) Purchase(ctx context.Context, input PurchaseInput) (*domain.StudentPackage, error) {
	if input.StudentID <= 0 {
		return nil, errors.New("student id is required")
	}

	tmpl, err := s.packages.GetTemplate(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, ErrTemplateInactive
	}

	pkg := &domain.StudentPackage{
		StudentID:      input.StudentID,
		InstructorID:   tmpl.InstructorID,
		PackageID:      &tmpl.ID,
		LessonsTotal:   tmpl.TotalLessons,
		VehicleType:    tmpl.VehicleType,
		TotalPaidCents: tmpl.TotalPriceCents,
	}
	if err := s.packages.CreatePending(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create pending package: %w", err)
	}

	s.publish(ctx, "package_purchased", pkg)
	return pkg, nil
}

// ConfirmPurchase applies the checkout reconciliation exactly once. The
// standard mode activates the new package; sum folds its lesson count
// into the old one; switch retires the old one in its favor.
func (s *PackageService) ConfirmPurchase(ctx context.Context, input ConfirmPurchaseInput) (*domain.StudentPackage, error) {
	newPkg, err := s.packages.GetByID(ctx, input.StudentPackageID)
	if err != nil {
		return nil, err
	}

	switch input.Mode {
	case domain.ReconcileStandard:
		activated, err := s.packages.Activate(ctx, newPkg.ID)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, "package_activated", activated)
		return activated, nil

	case domain.ReconcileSum, domain.ReconcileSwitch:
		if input.OldPackageID == nil {
			return nil, ErrOldPackageRequired
		}
		oldPkg, err := s.packages.GetByID(ctx, *input.OldPackageID)
		if err != nil {
			return nil, err
		}
		if oldPkg.StudentID != newPkg.StudentID || oldPkg.InstructorID != newPkg.InstructorID {
			return nil, ErrPackageMismatch
		}

		if input.Mode == domain.ReconcileSum {
			err = s.packages.ReconcileSum(ctx, oldPkg.ID, newPkg.ID)
		} else {
			err = s.packages.ReconcileSwitch(ctx, oldPkg.ID, newPkg.ID)
		}
		if err != nil {
			return nil, err
		}

		updated, err := s.packages.GetByID(ctx, newPkg.ID)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, "package_activated", updated)
		return updated, nil

	default:
		return nil, ErrUnknownMode
	}
}

func (s *PackageService) ActivePackage(ctx context.Context, studentID, instructorID int64) (*domain.StudentPackage, error) {
	return s.packages.GetActive(ctx, studentID, instructorID)
}

// ConsumeLesson is the only consumption path for a package balance; it
// is called once per package-funded booking creation.
func (s *PackageService) ConsumeLesson(ctx context.Context, studentPackageID int64) error {
	return s.packages.ConsumeLesson(ctx, studentPackageID)
}

// RefundLesson returns a consumed lesson when a package-funded booking
// is cancelled.
func (s *PackageService) RefundLesson(ctx context.Context, studentPackageID int64) error {
	return s.packages.RefundLesson(ctx, studentPackageID)
}

func (s *PackageService) publish(ctx context.Context, eventType string, pkg *domain.StudentPackage) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.LessonEvent{
		Type:             eventType,
		StudentID:        pkg.StudentID,
		InstructorID:     pkg.InstructorID,
		StudentPackageID: pkg.ID,
		Status:           string(pkg.Status),
		OccurredAt:       time.Now(),
	}
	key := fmt.Sprintf("package-%d", pkg.ID)
	_ = s.producer.Publish(ctx, s.eventsTopic, key, event)
	if s.notificationsTopic != "" {
		_ = s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
}

var _ PackageUseCase = (*PackageService)(nil)
