package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/repository"
	"github.com/avilov/drivebook/internal/schedule"
)

var ErrInvalidWindow = errors.New("window start hour must be before end hour")

type ScheduleUseCase interface {
	DaySlots(ctx context.Context, instructorID int64, date time.Time) (*schedule.DaySlots, error)
	BookableDates(ctx context.Context, instructorID int64, from time.Time, days int) ([]time.Time, error)
	Windows(ctx context.Context, instructorID int64) ([]domain.AvailabilityWindow, error)
	AddWindow(ctx context.Context, w *domain.AvailabilityWindow) error
	RemoveWindow(ctx context.Context, instructorID, windowID int64) error
}

type Cache interface {
	GetDaySlots(ctx context.Context, instructorID int64, date time.Time) (*schedule.DaySlots, error)
	SetDaySlots(ctx context.Context, instructorID int64, date time.Time, slots *schedule.DaySlots) error
	InvalidateDaySlots(ctx context.Context, instructorID int64, date time.Time) error
}

type ScheduleService struct {
	windows  repository.AvailabilityRepository
	bookings repository.BookingRepository
	cache    Cache
	now      func() time.Time
}

func NewScheduleService(windows repository.AvailabilityRepository, bookings repository.BookingRepository, cache Cache) *ScheduleService {
	return &ScheduleService{
		windows:  windows,
		bookings: bookings,
		cache:    cache,
		now:      time.Now,
	}
}

// DaySlots returns the offerable slots for an instructor on a date,
// cache-aside. Cached days are invalidated by the booking service on
// every mutation, so a hit is at worst slightly stale within the TTL.
// The current day is never cached: its slot set shrinks as the clock
// passes each hour, and a cached entry would keep offering gone hours.
func (s *ScheduleService) DaySlots(ctx context.Context, instructorID int64, date time.Time) (*schedule.DaySlots, error) {
	cacheable := s.cache != nil && !sameCalendarDay(date, s.now())
	if cacheable {
		if cached, err := s.cache.GetDaySlots(ctx, instructorID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	windows, err := s.windows.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.ListForInstructorDate(ctx, instructorID, date)
	if err != nil {
		return nil, err
	}

	slots := schedule.AvailableSlots(date, windows, booked, s.now())
	if cacheable {
		_ = s.cache.SetDaySlots(ctx, instructorID, date, &slots)
	}
	return &slots, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BookableDates returns the dates within [from, from+days) on which the
// instructor has at least one availability window. Used to enable
// calendar dates before any slots are fetched.
func (s *ScheduleService) BookableDates(ctx context.Context, instructorID int64, from time.Time, days int) ([]time.Time, error) {
	windows, err := s.windows.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		if schedule.IsDateBookable(d, windows) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func (s *ScheduleService) Windows(ctx context.Context, instructorID int64) ([]domain.AvailabilityWindow, error) {
	return s.windows.ListByInstructor(ctx, instructorID)
}

func (s *ScheduleService) AddWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	if !w.Valid() {
		return ErrInvalidWindow
	}
	return s.windows.Create(ctx, w)
}

func (s *ScheduleService) RemoveWindow(ctx context.Context, instructorID, windowID int64) error {
	return s.windows.Delete(ctx, instructorID, windowID)
}

var _ ScheduleUseCase = (*ScheduleService)(nil)
