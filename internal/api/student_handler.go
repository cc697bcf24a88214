package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/futevolei/futevolei-booking/internal/classes"
	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/enrollment"
	"github.com/futevolei/futevolei-booking/internal/reconcile"
)

// StudentHandler serves the student-facing booking API.
type StudentHandler struct {
	classes     *classes.Service
	enrollments *enrollment.Service
	engine      *reconcile.Engine
}

// NewStudentHandler creates the student handler.
func NewStudentHandler(classSvc *classes.Service, enrollSvc *enrollment.Service, engine *reconcile.Engine) *StudentHandler {
	return &StudentHandler{classes: classSvc, enrollments: enrollSvc, engine: engine}
}

// ListClasses handles GET /api/v1/classes
// Returns upcoming OPEN classes with availability derived at read time.
func (h *StudentHandler) ListClasses(c *gin.Context) {
	list, err := h.classes.ListOpen(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "classes": list})
}

// ClassDetail handles GET /api/v1/classes/:id
func (h *StudentHandler) ClassDetail(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.classes.Detail(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "class": detail})
}

// Enroll handles POST /api/v1/classes/:id/enroll
// Admits the caller and returns the PIX payload for the pending payment.
func (h *StudentHandler) Enroll(c *gin.Context) {
	classID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), currentUser(c), classID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"enrollment": result.Enrollment,
		"payment":    result.Payment,
	})
}

// CancelEnrollment handles POST /api/v1/enrollments/:id/cancel
func (h *StudentHandler) CancelEnrollment(c *gin.Context) {
	enrollmentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.enrollments.Cancel(c.Request.Context(), currentUser(c), enrollmentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.EnrollmentCancelled})
}

// EnrollmentStatus handles GET /api/v1/enrollments/:id/status
// The polling endpoint: consults the provider when possible but degrades to
// the last committed local state if the provider is unreachable.
func (h *StudentHandler) EnrollmentStatus(c *gin.Context) {
	enrollmentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	status, err := h.engine.Status(c.Request.Context(), currentUser(c), enrollmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// RefreshEnrollment handles POST /api/v1/enrollments/:id/refresh
// Forces a pull reconciliation; unlike the status endpoint a provider failure
// is surfaced to the caller.
func (h *StudentHandler) RefreshEnrollment(c *gin.Context) {
	enrollmentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	result, err := h.engine.Refresh(c.Request.Context(), currentUser(c), enrollmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": result})
}

// History handles GET /api/v1/enrollments
func (h *StudentHandler) History(c *gin.Context) {
	entries, err := h.enrollments.History(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrollments": entries})
}

// uintParam parses a numeric path parameter, answering 400 on garbage.
func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid " + name + " parameter",
			"code":    "VALIDATION_ERROR",
		})
		return 0, false
	}
	return uint(value), true
}
