package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/futevolei/futevolei-booking/internal/classes"
	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/enrollment"
	"github.com/futevolei/futevolei-booking/internal/platform/stubgateway"
	"github.com/futevolei/futevolei-booking/internal/reconcile"
)

// AdminHandler serves the admin API: schedule management, attendance, the
// monthly report and manual refunds.
type AdminHandler struct {
	classes     *classes.Service
	enrollments *enrollment.Service
	engine      *reconcile.Engine
	store       domain.Store

	// stub is set only in development mode, enabling the test approval
	// endpoint.
	stub *stubgateway.Gateway
}

// NewAdminHandler creates the admin handler. stub may be nil.
func NewAdminHandler(classSvc *classes.Service, enrollSvc *enrollment.Service, engine *reconcile.Engine, store domain.Store, stub *stubgateway.Gateway) *AdminHandler {
	return &AdminHandler{
		classes:     classSvc,
		enrollments: enrollSvc,
		engine:      engine,
		store:       store,
		stub:        stub,
	}
}

// CreateClass handles POST /api/v1/admin/classes
func (h *AdminHandler) CreateClass(c *gin.Context) {
	var input classes.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
			"code":    "VALIDATION_ERROR",
		})
		return
	}

	class, err := h.classes.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "class": class})
}

// UpdateClass handles PUT /api/v1/admin/classes/:id
// Nil fields in the body are left untouched.
func (h *AdminHandler) UpdateClass(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input classes.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
			"code":    "VALIDATION_ERROR",
		})
		return
	}

	class, err := h.classes.Update(c.Request.Context(), classID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "class": class})
}

// CancelClass handles POST /api/v1/admin/classes/:id/cancel
func (h *AdminHandler) CancelClass(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	class, err := h.classes.Cancel(c.Request.Context(), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "class": class})
}

// ClassDetail handles GET /api/v1/admin/classes/:id
// Enrollments are grouped by status with their payments attached.
func (h *AdminHandler) ClassDetail(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.classes.AdminDetail(c.Request.Context(), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "class": detail})
}

// MarkAttendance handles POST /api/v1/admin/classes/:id/attendance
func (h *AdminHandler) MarkAttendance(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Marks []classes.AttendanceInput `json:"marks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
			"code":    "VALIDATION_ERROR",
		})
		return
	}

	if err := h.classes.MarkAttendance(c.Request.Context(), currentUser(c), classID, input.Marks); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked": len(input.Marks)})
}

// ClassAttendance handles GET /api/v1/admin/classes/:id/attendance
func (h *AdminHandler) ClassAttendance(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	sheet, err := h.classes.ClassAttendance(c.Request.Context(), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attendance": sheet})
}

// MonthlySummary handles GET /api/v1/admin/reports/summary?month=8&year=2026
func (h *AdminHandler) MonthlySummary(c *gin.Context) {
	month, err1 := strconv.Atoi(c.Query("month"))
	year, err2 := strconv.Atoi(c.Query("year"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "month and year query parameters are required",
			"code":    "VALIDATION_ERROR",
		})
		return
	}

	summary, err := h.classes.MonthlySummary(c.Request.Context(), month, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// RefundPayment handles POST /api/v1/admin/payments/:id/refund
// Manual, admin-triggered refunds only; nothing refunds automatically.
func (h *AdminHandler) RefundPayment(c *gin.Context) {
	paymentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.enrollments.Refund(c.Request.Context(), currentUser(c), paymentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "refunded": paymentID})
}

// TestApprovePayment handles POST /api/v1/admin/enrollments/:id/test-approve
// Development only: flips the stub charge to approved and runs the same
// reconciliation a webhook would, so the whole confirmation path can be
// exercised without a real PIX transfer.
func (h *AdminHandler) TestApprovePayment(c *gin.Context) {
	enrollmentID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.store.Payments().FindByEnrollment(c.Request.Context(), enrollmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.stub.SetStatus(payment.ProviderChargeID, domain.ProviderApproved); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.engine.Push(c.Request.Context(), payment.ProviderChargeID, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
