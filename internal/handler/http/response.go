package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case domainErrors.CodeValidation:
		return http.StatusBadRequest
	case domainErrors.CodeNotFound:
		return http.StatusNotFound
	case domainErrors.CodeConflict:
		return http.StatusConflict
	case domainErrors.CodeForbidden:
		return http.StatusForbidden
	case domainErrors.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the uniform error body. Internal errors are logged with
// the full cause but reported without it.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := domainErrors.CodeOf(err)
	status := statusFor(code)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}

	body := gin.H{"error": msg, "code": code}
	if verr, ok := domainErrors.AsValidationError(err); ok {
		body["violations"] = verr.Violations
	}
	c.JSON(status, body)
}
