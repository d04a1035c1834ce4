package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PackageRepository interface {
	ListTemplates(ctx context.Context, instructorID int64) ([]domain.LessonPackage, error)
	GetTemplate(ctx context.Context, id int64) (*domain.LessonPackage, error)

	CreatePending(ctx context.Context, pkg *domain.StudentPackage) error
	GetByID(ctx context.Context, id int64) (*domain.StudentPackage, error)
	GetActive(ctx context.Context, studentID, instructorID int64) (*domain.StudentPackage, error)

	ConsumeLesson(ctx context.Context, id int64) error
	RefundLesson(ctx context.Context, id int64) error

	Activate(ctx context.Context, id int64) (*domain.StudentPackage, error)
	ReconcileSum(ctx context.Context, oldID, newID int64) error
	ReconcileSwitch(ctx context.Context, oldID, newID int64) error
}

type PGPackageRepository struct {
	db *pgxpool.Pool
}

func NewPackageRepository(db *pgxpool.Pool) PackageRepository {
	return &PGPackageRepository{db: db}
}

const studentPackageColumns = `id, student_id, instructor_id, package_id, lessons_total, lessons_used, vehicle_type, total_paid_cents, status, created_at, completed_at`

func scanStudentPackage(row pgx.Row) (*domain.StudentPackage, error) {
	var p domain.StudentPackage
	err := row.Scan(&p.ID, &p.StudentID, &p.InstructorID, &p.PackageID, &p.LessonsTotal, &p.LessonsUsed,
		&p.VehicleType, &p.TotalPaidCents, &p.Status, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGPackageRepository) ListTemplates(ctx context.Context, instructorID int64) ([]domain.LessonPackage, error) {
	rows, err := r.db.Query(ctx, `SELECT id, instructor_id, name, total_lessons, vehicle_type, total_price_cents, discount_percent, is_active, created_at, updated_at
		FROM lesson_packages WHERE instructor_id=$1 AND is_active ORDER BY total_lessons`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.LessonPackage, 0)
	for rows.Next() {
		var t domain.LessonPackage
		if err := rows.Scan(&t.ID, &t.InstructorID, &t.Name, &t.TotalLessons, &t.VehicleType,
			&t.TotalPriceCents, &t.DiscountPercent, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *PGPackageRepository) GetTemplate(ctx context.Context, id int64) (*domain.LessonPackage, error) {
	var t domain.LessonPackage
	err := r.db.QueryRow(ctx, `SELECT id, instructor_id, name, total_lessons, vehicle_type, total_price_cents, discount_percent, is_active, created_at, updated_at
		FROM lesson_packages WHERE id=$1`, id).
		Scan(&t.ID, &t.InstructorID, &t.Name, &t.TotalLessons, &t.VehicleType,
			&t.TotalPriceCents, &t.DiscountPercent, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGPackageRepository) CreatePending(ctx context.Context, pkg *domain.StudentPackage) error {
	pkg.Status = domain.PackageStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO student_packages
		(student_id, instructor_id, package_id, lessons_total, lessons_used, vehicle_type, total_paid_cents, status)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
		RETURNING id, created_at`,
		pkg.StudentID, pkg.InstructorID, pkg.PackageID, pkg.LessonsTotal, pkg.VehicleType, pkg.TotalPaidCents, pkg.Status).
		Scan(&pkg.ID, &pkg.CreatedAt)
}

func (r *PGPackageRepository) GetByID(ctx context.Context, id int64) (*domain.StudentPackage, error) {
	p, err := scanStudentPackage(r.db.QueryRow(ctx, `SELECT `+studentPackageColumns+` FROM student_packages WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	return p, err
}

func (r *PGPackageRepository) GetActive(ctx context.Context, studentID, instructorID int64) (*domain.StudentPackage, error) {
	p, err := scanStudentPackage(r.db.QueryRow(ctx, `SELECT `+studentPackageColumns+` FROM student_packages
		WHERE student_id=$1 AND instructor_id=$2 AND status=$3`, studentID, instructorID, domain.PackageStatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	return p, err
}

// ConsumeLesson increments lessons_used by one. The guard is in the
// UPDATE itself so two racing consumers of the last lesson cannot both
// succeed; the losing call is classified by re-reading the row.
func (r *PGPackageRepository) ConsumeLesson(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE student_packages SET lessons_used = lessons_used + 1
		WHERE id=$1 AND status=$2 AND lessons_used < lessons_total`, id, domain.PackageStatusActive)
	if err != nil {
		return fmt.Errorf("consume lesson: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	pkg, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if pkg.Status != domain.PackageStatusActive {
		return ErrPackageNotActive
	}
	return ErrInsufficientLessons
}

// RefundLesson returns one consumed lesson to the balance, bounded at
// zero. Used when a package-funded booking is cancelled.
func (r *PGPackageRepository) RefundLesson(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE student_packages SET lessons_used = lessons_used - 1
		WHERE id=$1 AND lessons_used > 0`, id)
	if err != nil {
		return fmt.Errorf("refund lesson: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func (r *PGPackageRepository) Activate(ctx context.Context, id int64) (*domain.StudentPackage, error) {
	p, err := scanStudentPackage(r.db.QueryRow(ctx, `UPDATE student_packages SET status=$1
		WHERE id=$2 AND status=$3
		RETURNING `+studentPackageColumns, domain.PackageStatusActive, id, domain.PackageStatusPending))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrActivePackageExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return p, nil
}

// ReconcileSum folds the new package's lesson count into the old one and
// retires the new record. Both rows are locked for the duration so a
// concurrent consumption cannot read a half-merged balance.
func (r *PGPackageRepository) ReconcileSum(ctx context.Context, oldID, newID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var newTotal int
	err = tx.QueryRow(ctx, `SELECT lessons_total FROM student_packages WHERE id=$1 FOR UPDATE`, newID).Scan(&newTotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPackageNotFound
	}
	if err != nil {
		return fmt.Errorf("lock new package: %w", err)
	}

	cmd, err := tx.Exec(ctx, `UPDATE student_packages
		SET lessons_total = lessons_total + $1, status = $2, completed_at = NULL
		WHERE id=$3`, newTotal, domain.PackageStatusActive, oldID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrActivePackageExists
		}
		return fmt.Errorf("merge into old package: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE student_packages SET status=$1, completed_at=now() WHERE id=$2`,
		domain.PackageStatusCompleted, newID); err != nil {
		return fmt.Errorf("retire new package: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReconcileSwitch retires the old package, abandoning its remaining
// balance, and activates the new one.
func (r *PGPackageRepository) ReconcileSwitch(ctx context.Context, oldID, newID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE student_packages SET status=$1, completed_at=now() WHERE id=$2`,
		domain.PackageStatusCompleted, oldID)
	if err != nil {
		return fmt.Errorf("retire old package: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	cmd, err = tx.Exec(ctx, `UPDATE student_packages SET status=$1 WHERE id=$2 AND status=$3`,
		domain.PackageStatusActive, newID, domain.PackageStatusPending)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrActivePackageExists
		}
		return fmt.Errorf("activate new package: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ PackageRepository = (*PGPackageRepository)(nil)
