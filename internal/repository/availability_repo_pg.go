package repository

import (
	"context"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository interface {
	ListByInstructor(ctx context.Context, instructorID int64) ([]domain.AvailabilityWindow, error)
	Create(ctx context.Context, w *domain.AvailabilityWindow) error
	Delete(ctx context.Context, instructorID, windowID int64) error
}

type PGAvailabilityRepository struct {
	db *pgxpool.Pool
}

func NewAvailabilityRepository(db *pgxpool.Pool) AvailabilityRepository {
	return &PGAvailabilityRepository{db: db}
}

func (r *PGAvailabilityRepository) ListByInstructor(ctx context.Context, instructorID int64) ([]domain.AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, `SELECT id, instructor_id, weekday, start_hour, end_hour, created_at, updated_at FROM availability_windows WHERE instructor_id=$1 ORDER BY weekday, start_hour`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]domain.AvailabilityWindow, 0)
	for rows.Next() {
		var w domain.AvailabilityWindow
		var weekday int
		if err := rows.Scan(&w.ID, &w.InstructorID, &weekday, &w.StartHour, &w.EndHour, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *PGAvailabilityRepository) Create(ctx context.Context, w *domain.AvailabilityWindow) error {
	return r.db.QueryRow(ctx, `INSERT INTO availability_windows (instructor_id, weekday, start_hour, end_hour)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, w.InstructorID, int(w.Weekday), w.StartHour, w.EndHour).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *PGAvailabilityRepository) Delete(ctx context.Context, instructorID, windowID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM availability_windows WHERE id=$1 AND instructor_id=$2`, windowID, instructorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

var _ AvailabilityRepository = (*PGAvailabilityRepository)(nil)
