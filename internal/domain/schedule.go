package domain

import "time"

// AvailabilityWindow is a recurring weekly interval during which an
// instructor accepts bookings. Hours are whole clock hours; a window
// 9..12 offers lesson starts at 9, 10 and 11.
type AvailabilityWindow struct {
	ID           int64
	InstructorID int64
	Weekday      time.Weekday
	StartHour    int
	EndHour      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the window can contribute slots. Malformed
// windows are skipped by the resolver, never rejected.
func (w AvailabilityWindow) Valid() bool {
	return w.StartHour >= 0 && w.EndHour <= 24 && w.StartHour < w.EndHour
}

type DayPart string

const (
	DayPartMorning   DayPart = "MORNING"
	DayPartAfternoon DayPart = "AFTERNOON"
	DayPartNight     DayPart = "NIGHT"
)

// DayPartOf buckets an hour: morning [0,12), afternoon [12,18), night [18,24).
func DayPartOf(hour int) DayPart {
	switch {
	case hour < 12:
		return DayPartMorning
	case hour < 18:
		return DayPartAfternoon
	default:
		return DayPartNight
	}
}

// Slot is a single bookable hour on a date for an instructor.
type Slot struct {
	Hour    int     `json:"hour"`
	DayPart DayPart `json:"day_part"`
}
