package repository

import "errors"

var (
	// ErrSlotTaken is returned when a non-cancelled booking already
	// holds the (instructor, date, hour) slot. The unique index is the
	// final arbiter of slot exclusivity; the resolver only hints.
	ErrSlotTaken = errors.New("slot already taken")

	ErrBookingNotFound = errors.New("booking not found")

	ErrPackageNotFound  = errors.New("student package not found")
	ErrPackageNotActive = errors.New("student package is not active")
	// ErrInsufficientLessons is returned when consumption would push
	// lessons_used past lessons_total.
	ErrInsufficientLessons = errors.New("no lessons left in package")
	// ErrActivePackageExists is returned when activation would create a
	// second active package for the same student-instructor pair.
	ErrActivePackageExists = errors.New("student already has an active package with this instructor")

	ErrTemplateNotFound = errors.New("lesson package not found")
	ErrWindowNotFound   = errors.New("availability window not found")
)
