// Package httpapi exposes the REST surface of the invoice API: gin routes,
// the authentication/authorization middleware, per-IP rate limiting, and the
// error envelope all responses share.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samifathi/invoice-api/internal/common"
)

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  []common.FieldError `json:"errors,omitempty"`
	Detail  string              `json:"detail,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func respondData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}

func respondValidation(c *gin.Context, verr *common.ValidationError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, envelope{
		Success: false,
		Error:   &errorBody{Code: "VALIDATION_ERROR", Message: "Validation failed", Errors: verr.Fields},
	})
}

// respondServiceError translates sentinel errors from the service layer into
// the stable envelope codes. Unclassified errors are logged and returned as a
// generic message, with detail attached only outside production.
func (s *Server) respondServiceError(c *gin.Context, err error) {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		respondValidation(c, verr)
		return
	}

	switch {
	case errors.Is(err, common.ErrorUserExists):
		respondError(c, http.StatusConflict, "USER_EXISTS", "User with this email already exists")
	case errors.Is(err, common.ErrorAlreadyExists):
		respondError(c, http.StatusConflict, "DUPLICATE_ERROR", "Duplicate entry")
	case errors.Is(err, common.ErrorMissingCredentials):
		respondError(c, http.StatusBadRequest, "MISSING_CREDENTIALS", "Email and password are required")
	case errors.Is(err, common.ErrorInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, common.ErrorAccountInactive):
		respondError(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "Your account has been deactivated")
	case errors.Is(err, common.ErrorMissingPasswords):
		respondError(c, http.StatusBadRequest, "MISSING_PASSWORDS", "Current and new passwords are required")
	case errors.Is(err, common.ErrorWeakPassword):
		respondError(c, http.StatusBadRequest, "WEAK_PASSWORD", "New password must be at least 6 characters")
	case errors.Is(err, common.ErrorInvalidPassword):
		respondError(c, http.StatusUnauthorized, "INVALID_PASSWORD", "Current password is incorrect")
	case errors.Is(err, common.ErrorNoUpdates):
		respondError(c, http.StatusBadRequest, "NO_UPDATES", "No valid fields to update")
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, common.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Please authenticate first")
	case errors.Is(err, common.ErrInsufficientPermissions):
		respondError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions")
	default:
		s.logger.Error(c.Request.Context(), "internal error", "path", c.FullPath(), "error", err.Error())
		body := &errorBody{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}
		if !s.cfg.IsProduction() {
			body.Detail = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Success: false, Error: body})
	}
}
