package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/service"
)

// envelope is the body shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.AbortWithStatusJSON(svcErr.Status, envelope{Message: svcErr.Message, Error: string(svcErr.Kind)})
		return
	}

	logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{
		Message: "Something went wrong",
		Error:   "server_error",
	})
}

// bind decodes the JSON body into req and reports shape violations as service errors.
func bind(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &service.Error{Kind: service.KindInvalidRequest, Message: "Invalid request body", Status: http.StatusBadRequest}
	}

	fe := fieldErrs[0]
	if fe.Tag() == "eqfield" {
		return service.ErrPasswordMismatch
	}
	return &service.Error{Kind: service.KindInvalidRequest, Message: fieldMessage(fe), Status: http.StatusBadRequest}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return "Please provide a valid email"
	case "Password", "NewPassword":
		switch fe.Tag() {
		case "max":
			return "Password cannot exceed 32 characters"
		case "min":
			return "Password must be at least 6 characters"
		}
		return "Password is required"
	case "ConfirmPassword":
		return "Please confirm your password"
	case "TermsAccepted":
		return "You must accept the terms and conditions"
	case "Code":
		return "Verification code must be 6 digits"
	case "OrgSlug":
		return "Organization slug is required"
	case "Provider":
		return "Provider must be google or apple"
	case "Token":
		return "Token is required"
	case "Location":
		return "Location is required"
	case "RefreshToken":
		return "Refresh token is required"
	}
	return "Invalid request body"
}
