// Package schedule computes bookable lesson slots from an instructor's
// recurring weekly availability and the bookings already taken on a date.
// It is pure: all data is passed in, nothing is fetched or mutated.
package schedule

import (
	"sort"
	"time"

	"github.com/avilov/drivebook/internal/domain"
)

// DaySlots is the resolver output for one date: free slots in ascending
// hour order plus the same slots partitioned by day part for display.
type DaySlots struct {
	Date  time.Time                        `json:"date"`
	Slots []domain.Slot                    `json:"slots"`
	Parts map[domain.DayPart][]domain.Slot `json:"parts"`
}

// AvailableSlots returns the free hour slots for one instructor on one
// date. Windows for other weekdays are ignored; bookings are matched by
// scheduled hour regardless of status filtering, so callers pass only
// non-cancelled bookings for that date. When date is the current day
// relative to now, slots at or before now's hour are excluded.
func AvailableSlots(date time.Time, windows []domain.AvailabilityWindow, bookings []domain.Booking, now time.Time) DaySlots {
	booked := make(map[int]struct{}, len(bookings))
	for _, b := range bookings {
		if sameDate(b.ScheduledDate, date) {
			booked[b.ScheduledHour] = struct{}{}
		}
	}

	sameDay := sameDate(date, now)

	// Overlapping windows may cover the same hour; the set keeps each
	// slot time unique.
	free := make(map[int]struct{})
	for _, w := range windows {
		if w.Weekday != date.Weekday() || !w.Valid() {
			continue
		}
		for h := w.StartHour; h < w.EndHour; h++ {
			if _, taken := booked[h]; taken {
				continue
			}
			if sameDay && h <= now.Hour() {
				continue
			}
			free[h] = struct{}{}
		}
	}

	hours := make([]int, 0, len(free))
	for h := range free {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := DaySlots{
		Date:  date,
		Slots: make([]domain.Slot, 0, len(hours)),
		Parts: make(map[domain.DayPart][]domain.Slot),
	}
	for _, h := range hours {
		slot := domain.Slot{Hour: h, DayPart: domain.DayPartOf(h)}
		out.Slots = append(out.Slots, slot)
		out.Parts[slot.DayPart] = append(out.Parts[slot.DayPart], slot)
	}
	return out
}

// IsDateBookable reports whether any valid window matches the date's
// weekday. Used to enable or disable calendar dates before slots are
// computed.
func IsDateBookable(date time.Time, windows []domain.AvailabilityWindow) bool {
	for _, w := range windows {
		if w.Valid() && w.Weekday == date.Weekday() {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
