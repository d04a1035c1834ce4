package api

import (
	"net/http"
	"strconv"

	"github.com/avilov/drivebook/internal/domain"
	"github.com/avilov/drivebook/internal/service/packages"
	"github.com/gin-gonic/gin"
)

type PackageHandler struct {
	service packages.PackageUseCase
}

type purchaseRequest struct {
	StudentID int64 `json:"student_id"`
	PackageID int64 `json:"package_id"`
}

type confirmPurchaseRequest struct {
	Mode         string `json:"mode"`
	OldPackageID *int64 `json:"old_package_id,omitempty"`
}

type studentPackageResponse struct {
	ID           int64  `json:"id"`
	StudentID    int64  `json:"student_id"`
	InstructorID int64  `json:"instructor_id"`
	LessonsTotal int    `json:"lessons_total"`
	LessonsUsed  int    `json:"lessons_used"`
	LessonsLeft  int    `json:"lessons_left"`
	VehicleType  string `json:"vehicle_type"`
	Status       string `json:"status"`
}

func NewPackageHandler(service packages.PackageUseCase) *PackageHandler {
	return &PackageHandler{service: service}
}

func (h *PackageHandler) Register(router *gin.RouterGroup) {
	router.GET("/templates/:instructorID", h.listTemplates)
	router.POST("/", h.purchase)
	router.PUT("/:id/confirm", h.confirmPurchase)
	router.GET("/active", h.activePackage)
}

func toStudentPackageResponse(p *domain.StudentPackage) studentPackageResponse {
	return studentPackageResponse{
		ID:           p.ID,
		StudentID:    p.StudentID,
		InstructorID: p.InstructorID,
		LessonsTotal: p.LessonsTotal,
		LessonsUsed:  p.LessonsUsed,
		LessonsLeft:  p.LessonsLeft(),
		VehicleType:  string(p.VehicleType),
		Status:       string(p.Status),
	}
}

func (h *PackageHandler) listTemplates(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("instructorID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instructor id"})
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *PackageHandler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.service.Purchase(c.Request.Context(), packages.PurchaseInput{
		StudentID: req.StudentID,
		PackageID: req.PackageID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStudentPackageResponse(pkg))
}

// confirmPurchase runs once per captured payment. An error here means a
// captured payment with no reconciled ledger; the 502 carries the ids an
// operator needs, and the caller must not retry blindly.
func (h *PackageHandler) confirmPurchase(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	var req confirmPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.service.ConfirmPurchase(c.Request.Context(), packages.ConfirmPurchaseInput{
		StudentPackageID: id,
		Mode:             domain.ReconcileMode(req.Mode),
		OldPackageID:     req.OldPackageID,
	})
	if err != nil {
		if isReconcileFailure(err) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":              "reconciliation failed after payment capture, manual intervention required",
				"detail":             err.Error(),
				"student_package_id": id,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentPackageResponse(pkg))
}

func (h *PackageHandler) activePackage(c *gin.Context) {
	studentID, err1 := strconv.ParseInt(c.Query("student_id"), 10, 64)
	instructorID, err2 := strconv.ParseInt(c.Query("instructor_id"), 10, 64)
	if err1 != nil || err2 != nil || studentID <= 0 || instructorID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id and instructor_id are required"})
		return
	}

	pkg, err := h.service.ActivePackage(c.Request.Context(), studentID, instructorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentPackageResponse(pkg))
}
