package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything SetupRouter needs.
type RouterConfig struct {
	Student *StudentHandler
	Admin   *AdminHandler
	Webhook *WebhookHandler

	JWTSecret string
	GinMode   string

	// EnableTestApproval registers the development-only payment approval
	// endpoint. Never set in production.
	EnableTestApproval bool
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check and metrics (public)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "futevolei-booking",
			"version": "1.0.0",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhook endpoint (public, validates x-signature itself)
	router.POST("/webhooks/mercadopago", cfg.Webhook.Handle)

	// API v1 routes (requires Bearer auth)
	v1 := router.Group("/api/v1")
	v1.Use(JWTAuthMiddleware(cfg.JWTSecret))
	{
		v1.GET("/classes", cfg.Student.ListClasses)
		v1.GET("/classes/:id", cfg.Student.ClassDetail)
		v1.POST("/classes/:id/enroll", cfg.Student.Enroll)

		v1.GET("/enrollments", cfg.Student.History)
		v1.POST("/enrollments/:id/cancel", cfg.Student.CancelEnrollment)
		v1.GET("/enrollments/:id/status", cfg.Student.EnrollmentStatus)
		v1.POST("/enrollments/:id/refresh", cfg.Student.RefreshEnrollment)

		admin := v1.Group("/admin")
		admin.Use(AdminRequiredMiddleware())
		{
			admin.POST("/classes", cfg.Admin.CreateClass)
			admin.GET("/classes/:id", cfg.Admin.ClassDetail)
			admin.PUT("/classes/:id", cfg.Admin.UpdateClass)
			admin.POST("/classes/:id/cancel", cfg.Admin.CancelClass)
			admin.POST("/classes/:id/attendance", cfg.Admin.MarkAttendance)
			admin.GET("/classes/:id/attendance", cfg.Admin.ClassAttendance)
			admin.GET("/reports/summary", cfg.Admin.MonthlySummary)
			admin.POST("/payments/:id/refund", cfg.Admin.RefundPayment)

			if cfg.EnableTestApproval {
				admin.POST("/enrollments/:id/test-approve", cfg.Admin.TestApprovePayment)
			}
		}
	}

	return router
}
