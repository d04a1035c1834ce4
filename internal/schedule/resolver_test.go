package schedule

import (
	"testing"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/stretchr/testify/assert"
)

// 2025-06-02 is a Monday.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func window(weekday time.Weekday, start, end int) domain.AvailabilityWindow {
	return domain.AvailabilityWindow{InstructorID: 1, Weekday: weekday, StartHour: start, EndHour: end}
}

func bookingAt(date time.Time, hour int) domain.Booking {
	return domain.Booking{InstructorID: 1, ScheduledDate: date, ScheduledHour: hour, Status: domain.BookingStatusConfirmed}
}

func hours(slots []domain.Slot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Hour)
	}
	return out
}

func TestAvailableSlots_HalfOpenWindow(t *testing.T) {
	windows := []domain.AvailabilityWindow{window(time.Monday, 9, 12)}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{9, 10, 11}, hours(got.Slots))
	assert.NotContains(t, hours(got.Slots), 12)
}

func TestAvailableSlots_ExcludesBookedHours(t *testing.T) {
	windows := []domain.AvailabilityWindow{window(time.Monday, 9, 13)}
	bookings := []domain.Booking{bookingAt(monday, 10), bookingAt(monday, 12)}

	got := AvailableSlots(monday, windows, bookings, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{9, 11}, hours(got.Slots))
}

func TestAvailableSlots_IgnoresBookingsOnOtherDates(t *testing.T) {
	windows := []domain.AvailabilityWindow{window(time.Monday, 9, 11)}
	bookings := []domain.Booking{bookingAt(monday.AddDate(0, 0, 7), 9)}

	got := AvailableSlots(monday, windows, bookings, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{9, 10}, hours(got.Slots))
}

func TestAvailableSlots_OverlappingWindowsDeduped(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		window(time.Monday, 9, 12),
		window(time.Monday, 10, 14),
	}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{9, 10, 11, 12, 13}, hours(got.Slots))
}

func TestAvailableSlots_OtherWeekdayWindowsIgnored(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		window(time.Tuesday, 9, 12),
		window(time.Sunday, 8, 10),
	}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Empty(t, got.Slots)
}

func TestAvailableSlots_SameDayExcludesCurrentAndPastHours(t *testing.T) {
	windows := []domain.AvailabilityWindow{window(time.Monday, 8, 20)}
	now := time.Date(2025, 6, 2, 13, 45, 0, 0, time.UTC)

	got := AvailableSlots(monday, windows, nil, now)

	assert.Equal(t, []int{14, 15, 16, 17, 18, 19}, hours(got.Slots))
}

func TestAvailableSlots_FutureDateKeepsEarlyHours(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	windows := []domain.AvailabilityWindow{window(time.Tuesday, 8, 11)}
	now := time.Date(2025, 6, 2, 13, 45, 0, 0, time.UTC)

	got := AvailableSlots(tuesday, windows, nil, now)

	assert.Equal(t, []int{8, 9, 10}, hours(got.Slots))
}

func TestAvailableSlots_MalformedWindowContributesNothing(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		window(time.Monday, 12, 9),
		window(time.Monday, 15, 15),
		window(time.Monday, 16, 18),
	}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{16, 17}, hours(got.Slots))
}

func TestAvailableSlots_DayPartPartition(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		window(time.Monday, 10, 13),
		window(time.Monday, 17, 20),
	}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Equal(t, []int{10, 11}, hours(got.Parts[domain.DayPartMorning]))
	assert.Equal(t, []int{12, 17}, hours(got.Parts[domain.DayPartAfternoon]))
	assert.Equal(t, []int{18, 19}, hours(got.Parts[domain.DayPartNight]))
}

func TestAvailableSlots_EmptyBucketOmitted(t *testing.T) {
	windows := []domain.AvailabilityWindow{window(time.Monday, 9, 11)}

	got := AvailableSlots(monday, windows, nil, monday.AddDate(0, 0, -7))

	assert.Contains(t, got.Parts, domain.DayPartMorning)
	assert.NotContains(t, got.Parts, domain.DayPartAfternoon)
	assert.NotContains(t, got.Parts, domain.DayPartNight)
}

func TestAvailableSlots_NoWindowsForWeekday(t *testing.T) {
	got := AvailableSlots(monday, nil, nil, monday.AddDate(0, 0, -7))
	assert.Empty(t, got.Slots)
}

func TestIsDateBookable(t *testing.T) {
	windows := []domain.AvailabilityWindow{
		window(time.Monday, 9, 12),
		window(time.Wednesday, 14, 13), // malformed, ignored
	}

	assert.True(t, IsDateBookable(monday, windows))
	assert.False(t, IsDateBookable(monday.AddDate(0, 0, 1), windows))
	assert.False(t, IsDateBookable(monday.AddDate(0, 0, 2), windows))
}
