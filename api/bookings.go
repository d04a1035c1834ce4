package api

import (
	"net/http"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	StudentID        int64  `json:"student_id"`
	InstructorID     int64  `json:"instructor_id"`
	Date             string `json:"date"`
	Hour             int    `json:"hour"`
	VehicleType      string `json:"vehicle_type"`
	PriceCents       int64  `json:"price_cents"`
	StudentPackageID *int64 `json:"student_package_id,omitempty"`
}

type bookingResponse struct {
	Token            string `json:"token"`
	StudentID        int64  `json:"student_id"`
	InstructorID     int64  `json:"instructor_id"`
	Date             string `json:"date"`
	Hour             int    `json:"hour"`
	VehicleType      string `json:"vehicle_type"`
	PriceCents       int64  `json:"price_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	Status           string `json:"status"`
	PaymentStatus    string `json:"payment_status"`
	StudentPackageID *int64 `json:"student_package_id,omitempty"`
	ExpiresAt        string `json:"expires_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.PUT("/:token/confirm", h.confirm)
	router.PUT("/:token/paid", h.markPaid)
	router.DELETE("/:token", h.cancel)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Token:            b.Token,
		StudentID:        b.StudentID,
		InstructorID:     b.InstructorID,
		Date:             b.ScheduledDate.Format("2006-01-02"),
		Hour:             b.ScheduledHour,
		VehicleType:      string(b.VehicleType),
		PriceCents:       b.PriceCents,
		PlatformFeeCents: b.PlatformFeeCents,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		StudentPackageID: b.StudentPackageID,
		ExpiresAt:        b.ExpiresAt.Format(time.RFC3339),
	}
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		StudentID:        req.StudentID,
		InstructorID:     req.InstructorID,
		Date:             date,
		Hour:             req.Hour,
		VehicleType:      domain.VehicleType(req.VehicleType),
		PriceCents:       req.PriceCents,
		StudentPackageID: req.StudentPackageID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	updated, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) markPaid(c *gin.Context) {
	updated, err := h.service.MarkPaid(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	updated, err := h.service.CancelBooking(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}
