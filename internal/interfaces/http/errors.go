package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/monitoria/internal/domain/apperror"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindStateGuard, apperror.KindBusinessRule:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Unclassified errors
// become a generic 500 so internals do not leak.
func writeError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(statusOf(appErr.Kind), ErrorResponse{Error: appErr.Message, Details: appErr.Details})
}

// bindError converts a gin binding failure into a validation error with
// field-level details
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return apperror.Validation("invalid request body", details)
	}
	return apperror.Validation("malformed request: "+err.Error(), nil)
}
