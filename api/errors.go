package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/tools"
)

type fieldError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// status maps an error to its HTTP status and public message
func status(err error) (int, fieldError) {
	var ve *tools.ValidationError
	var ie *auth.InputError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, fieldError{Error: ve.Error(), Field: ve.Field}
	case errors.As(err, &ie):
		return http.StatusBadRequest, fieldError{Error: ie.Error(), Field: ie.Field}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, fieldError{Error: "invalid email or password"}
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, fieldError{Error: "authentication required"}
	case errors.Is(err, auth.ErrOAuthDisabled):
		return http.StatusNotFound, fieldError{Error: "google sign-in is not configured"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, fieldError{Error: "the request took too long"}
	case errors.Is(err, context.Canceled):
		return 499, fieldError{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, fieldError{Error: "An unexpected error occurred"}
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code, body := status(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("http: request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(code, body)
}

func badBody(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, fieldError{Error: "invalid request body: " + err.Error()})
}
