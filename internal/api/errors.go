package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// respondError translates domain errors into HTTP responses. Unknown errors
// are logged and reported as a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	status, code, message := classifyError(err)
	if status == http.StatusInternalServerError {
		log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

func classifyError(err error) (status int, code, message string) {
	var bookingErr *domain.BookingError
	if errors.As(err, &bookingErr) && bookingErr.Code != "" {
		code = bookingErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrClassNotFound),
		errors.Is(err, domain.ErrEnrollmentNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound, fallback(code, "NOT_FOUND"), err.Error()

	case errors.Is(err, domain.ErrClassFull):
		return http.StatusConflict, fallback(code, "CLASS_FULL"), err.Error()

	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return http.StatusConflict, fallback(code, "ALREADY_ENROLLED"), err.Error()

	case errors.Is(err, domain.ErrClassNotOpen):
		return http.StatusConflict, fallback(code, "CLASS_NOT_OPEN"), err.Error()

	case errors.Is(err, domain.ErrPaymentNotRefundable):
		return http.StatusConflict, fallback(code, "NOT_REFUNDABLE"), err.Error()

	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, fallback(code, "FORBIDDEN"), "enrollment does not belong to caller"

	case errors.Is(err, domain.ErrPaymentGatewayError),
		errors.Is(err, domain.ErrChargeNotFound):
		return http.StatusBadGateway, fallback(code, "GATEWAY_ERROR"), "payment provider unavailable"

	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, fallback(code, "VALIDATION_ERROR"), err.Error()

	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

func fallback(code, def string) string {
	if code != "" {
		return code
	}
	return def
}
