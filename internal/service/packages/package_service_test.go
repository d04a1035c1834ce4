package packages

import (
	"context"
	"testing"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) ListTemplates(ctx context.Context, instructorID int64) ([]domain.LessonPackage, error) {
	args := m.Called(ctx, instructorID)
	return args.Get(0).([]domain.LessonPackage), args.Error(1)
}

func (m *MockPackageRepository) GetTemplate(ctx context.Context, id int64) (*domain.LessonPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LessonPackage), args.Error(1)
}

func (m *MockPackageRepository) CreatePending(ctx context.Context, pkg *domain.StudentPackage) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) GetByID(ctx context.Context, id int64) (*domain.StudentPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentPackage), args.Error(1)
}

func (m *MockPackageRepository) GetActive(ctx context.Context, studentID, instructorID int64) (*domain.StudentPackage, error) {
	args := m.Called(ctx, studentID, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentPackage), args.Error(1)
}

func (m *MockPackageRepository) ConsumeLesson(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPackageRepository) RefundLesson(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPackageRepository) Activate(ctx context.Context, id int64) (*domain.StudentPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentPackage), args.Error(1)
}

func (m *MockPackageRepository) ReconcileSum(ctx context.Context, oldID, newID int64) error {
	args := m.Called(ctx, oldID, newID)
	return args.Error(0)
}

func (m *MockPackageRepository) ReconcileSwitch(ctx context.Context, oldID, newID int64) error {
	args := m.Called(ctx, oldID, newID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(repo *MockPackageRepository, producer *MockProducer) *PackageService {
	return &PackageService{
		packages:    repo,
		producer:    producer,
		eventsTopic: "lesson_events",
	}
}

func TestPackageService_Purchase(t *testing.T) {
	repo := &MockPackageRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, producer)

	ctx := context.Background()
	tmpl := &domain.LessonPackage{
		ID:              5,
		InstructorID:    7,
		Name:            "10 lessons",
		TotalLessons:    10,
		VehicleType:     domain.VehicleInstructor,
		TotalPriceCents: 45000,
		IsActive:        true,
	}

	repo.On("GetTemplate", ctx, int64(5)).Return(tmpl, nil).Once()
	repo.On("CreatePending", ctx, mock.AnythingOfType("*domain.StudentPackage")).Return(nil).Once()
	producer.On("Publish", ctx, "lesson_events", mock.Anything, mock.Anything).Return(nil).Once()

	pkg, err := service.Purchase(ctx, PurchaseInput{StudentID: 3, PackageID: 5})

	assert.NoError(t, err)
	assert.Equal(t, domain.PackageStatusPending, pkg.Status)
	assert.Equal(t, 10, pkg.LessonsTotal)
	assert.Equal(t, 0, pkg.LessonsUsed)
	assert.Equal(t, int64(7), pkg.InstructorID)
	assert.Equal(t, int64(45000), pkg.TotalPaidCents)
	repo.AssertExpectations(t)
}

func TestPackageService_Purchase_InactiveTemplate(t *testing.T) {
	repo := &MockPackageRepository{}
	service := newTestService(repo, &MockProducer{})

	ctx := context.Background()
	repo.On("GetTemplate", ctx, int64(5)).
		Return(&domain.LessonPackage{ID: 5, InstructorID: 7, IsActive: false}, nil).Once()

	pkg, err := service.Purchase(ctx, PurchaseInput{StudentID: 3, PackageID: 5})

	assert.ErrorIs(t, err, ErrTemplateInactive)
	assert.Nil(t, pkg)
	repo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestPackageService_ConfirmPurchase_Standard(t *testing.T) {
	repo := &MockPackageRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, producer)

	ctx := context.Background()
	pending := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusPending}
	active := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusActive}

	repo.On("GetByID", ctx, int64(11)).Return(pending, nil).Once()
	repo.On("Activate", ctx, int64(11)).Return(active, nil).Once()
	producer.On("Publish", ctx, "lesson_events", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: domain.ReconcileStandard})

	assert.NoError(t, err)
	assert.Equal(t, domain.PackageStatusActive, got.Status)
	repo.AssertExpectations(t)
}

func TestPackageService_ConfirmPurchase_Sum(t *testing.T) {
	repo := &MockPackageRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, producer)

	ctx := context.Background()
	oldID := int64(9)
	newPending := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusPending}
	oldCompleted := &domain.StudentPackage{ID: 9, StudentID: 3, InstructorID: 7, LessonsTotal: 5, LessonsUsed: 3, Status: domain.PackageStatusCompleted}
	newRetired := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusCompleted}

	repo.On("GetByID", ctx, int64(11)).Return(newPending, nil).Once()
	repo.On("GetByID", ctx, int64(9)).Return(oldCompleted, nil).Once()
	repo.On("ReconcileSum", ctx, int64(9), int64(11)).Return(nil).Once()
	repo.On("GetByID", ctx, int64(11)).Return(newRetired, nil).Once()
	producer.On("Publish", ctx, "lesson_events", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: domain.ReconcileSum, OldPackageID: &oldID})

	assert.NoError(t, err)
	assert.Equal(t, domain.PackageStatusCompleted, got.Status)
	repo.AssertExpectations(t)
}

func TestPackageService_ConfirmPurchase_Switch(t *testing.T) {
	repo := &MockPackageRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, producer)

	ctx := context.Background()
	oldID := int64(9)
	newPending := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusPending}
	oldActive := &domain.StudentPackage{ID: 9, StudentID: 3, InstructorID: 7, LessonsTotal: 5, LessonsUsed: 2, Status: domain.PackageStatusActive}
	newActive := &domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, LessonsTotal: 10, Status: domain.PackageStatusActive}

	repo.On("GetByID", ctx, int64(11)).Return(newPending, nil).Once()
	repo.On("GetByID", ctx, int64(9)).Return(oldActive, nil).Once()
	repo.On("ReconcileSwitch", ctx, int64(9), int64(11)).Return(nil).Once()
	repo.On("GetByID", ctx, int64(11)).Return(newActive, nil).Once()
	producer.On("Publish", ctx, "lesson_events", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: domain.ReconcileSwitch, OldPackageID: &oldID})

	assert.NoError(t, err)
	assert.Equal(t, domain.PackageStatusActive, got.Status)
	repo.AssertExpectations(t)
}

func TestPackageService_ConfirmPurchase_SumWithoutOldPackage(t *testing.T) {
	repo := &MockPackageRepository{}
	service := newTestService(repo, &MockProducer{})

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(11)).
		Return(&domain.StudentPackage{ID: 11, Status: domain.PackageStatusPending}, nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: domain.ReconcileSum})

	assert.ErrorIs(t, err, ErrOldPackageRequired)
	assert.Nil(t, got)
}

func TestPackageService_ConfirmPurchase_PairMismatch(t *testing.T) {
	repo := &MockPackageRepository{}
	service := newTestService(repo, &MockProducer{})

	ctx := context.Background()
	oldID := int64(9)
	repo.On("GetByID", ctx, int64(11)).
		Return(&domain.StudentPackage{ID: 11, StudentID: 3, InstructorID: 7, Status: domain.PackageStatusPending}, nil).Once()
	repo.On("GetByID", ctx, int64(9)).
		Return(&domain.StudentPackage{ID: 9, StudentID: 3, InstructorID: 8, Status: domain.PackageStatusActive}, nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: domain.ReconcileSwitch, OldPackageID: &oldID})

	assert.ErrorIs(t, err, ErrPackageMismatch)
	assert.Nil(t, got)
	repo.AssertNotCalled(t, "ReconcileSwitch", mock.Anything, mock.Anything, mock.Anything)
}

func TestPackageService_ConfirmPurchase_UnknownMode(t *testing.T) {
	repo := &MockPackageRepository{}
	service := newTestService(repo, &MockProducer{})

	ctx := context.Background()
	repo.On("GetByID", ctx, int64(11)).
		Return(&domain.StudentPackage{ID: 11, Status: domain.PackageStatusPending}, nil).Once()

	got, err := service.ConfirmPurchase(ctx, ConfirmPurchaseInput{StudentPackageID: 11, Mode: "MERGE"})

	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Nil(t, got)
}

func TestPackageService_ConsumeLesson_PassesThroughLedgerErrors(t *testing.T) {
	repo := &MockPackageRepository{}
	service := newTestService(repo, &MockProducer{})

	ctx := context.Background()
	repo.On("ConsumeLesson", ctx, int64(42)).Return(repository.ErrInsufficientLessons).Once()

	err := service.ConsumeLesson(ctx, 42)

	assert.ErrorIs(t, err, repository.ErrInsufficientLessons)
}
