package api

import (
	"errors"
	"net/http"

	"github.com/avilov/drivebook/internal/repository"
	"github.com/avilov/drivebook/internal/service/booking"
	"github.com/avilov/drivebook/internal/service/packages"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Unmapped errors
// fall through as 400 to keep internals out of responses.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrTemplateNotFound),
		errors.Is(err, repository.ErrWindowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrSlotTaken),
		errors.Is(err, booking.ErrSlotHeld),
		errors.Is(err, repository.ErrActivePackageExists):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrInsufficientLessons),
		errors.Is(err, repository.ErrPackageNotActive):
		status = http.StatusPaymentRequired
	case errors.Is(err, booking.ErrSlotNotOffered),
		errors.Is(err, booking.ErrNotPending),
		errors.Is(err, packages.ErrOldPackageRequired),
		errors.Is(err, packages.ErrPackageMismatch),
		errors.Is(err, packages.ErrUnknownMode),
		errors.Is(err, packages.ErrTemplateInactive):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// isReconcileFailure separates pre-mutation argument errors from
// failures after the payment was already captured. Only the latter need
// the manual-intervention response.
func isReconcileFailure(err error) bool {
	switch {
	case errors.Is(err, packages.ErrOldPackageRequired),
		errors.Is(err, packages.ErrUnknownMode),
		errors.Is(err, packages.ErrPackageMismatch),
		errors.Is(err, repository.ErrPackageNotFound):
		return false
	}
	return true
}
