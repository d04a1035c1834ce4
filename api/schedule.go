package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avilov/drivebook/internal/domain"
	svc "github.com/avilov/drivebook/internal/service/schedule"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	service svc.ScheduleUseCase
}

type addWindowRequest struct {
	Weekday   int `json:"weekday"`
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type windowResponse struct {
	ID        int64 `json:"id"`
	Weekday   int   `json:"weekday"`
	StartHour int   `json:"start_hour"`
	EndHour   int   `json:"end_hour"`
}

func NewScheduleHandler(service svc.ScheduleUseCase) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) Register(router *gin.RouterGroup) {
	router.GET("/:instructorID/slots", h.daySlots)
	router.GET("/:instructorID/dates", h.bookableDates)
	router.GET("/:instructorID/windows", h.listWindows)
	router.POST("/:instructorID/windows", h.addWindow)
	router.DELETE("/:instructorID/windows/:windowID", h.removeWindow)
}

func instructorID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("instructorID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instructor id"})
		return 0, false
	}
	return id, true
}

func (h *ScheduleHandler) daySlots(c *gin.Context) {
	id, ok := instructorID(c)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	slots, err := h.service.DaySlots(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *ScheduleHandler) bookableDates(c *gin.Context) {
	id, ok := instructorID(c)
	if !ok {
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}

	days := 30
	if v := c.Query("days"); v != "" {
		if days, err = strconv.Atoi(v); err != nil || days <= 0 || days > 90 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
			return
		}
	}

	dates, err := h.service.BookableDates(c.Request.Context(), id, from, days)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"dates": out})
}

func (h *ScheduleHandler) listWindows(c *gin.Context) {
	id, ok := instructorID(c)
	if !ok {
		return
	}

	windows, err := h.service.Windows(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]windowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowResponse{ID: w.ID, Weekday: int(w.Weekday), StartHour: w.StartHour, EndHour: w.EndHour})
	}
	c.JSON(http.StatusOK, gin.H{"windows": out})
}

func (h *ScheduleHandler) addWindow(c *gin.Context) {
	id, ok := instructorID(c)
	if !ok {
		return
	}

	var req addWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be between 0 and 6"})
		return
	}

	w := &domain.AvailabilityWindow{
		InstructorID: id,
		Weekday:      time.Weekday(req.Weekday),
		StartHour:    req.StartHour,
		EndHour:      req.EndHour,
	}
	if err := h.service.AddWindow(c.Request.Context(), w); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, windowResponse{ID: w.ID, Weekday: int(w.Weekday), StartHour: w.StartHour, EndHour: w.EndHour})
}

func (h *ScheduleHandler) removeWindow(c *gin.Context) {
	id, ok := instructorID(c)
	if !ok {
		return
	}

	windowID, err := strconv.ParseInt(c.Param("windowID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window id"})
		return
	}

	if err := h.service.RemoveWindow(c.Request.Context(), id, windowID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
