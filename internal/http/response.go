package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/service"
)

// APIResponse is the envelope every successful endpoint returns.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIError carries an HTTP status with its message through the gin
// error chain until the translator middleware serializes it.
type APIError struct {
	Code    int      `json:"statusCode"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message, Errors: []string{}}
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func abortWithError(c *gin.Context, err *APIError) {
	_ = c.Error(err)
	c.Abort()
}

// errorTranslator turns any error attached to the context into the
// standard failure envelope. Handlers never write error bodies
// themselves, so nothing escapes unformatted.
func errorTranslator(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last().Err
		var apiErr *APIError
		if !errors.As(last, &apiErr) {
			logger.Error("unhandled error", zap.Error(last), zap.String("path", c.Request.URL.Path))
			apiErr = NewAPIError(http.StatusInternalServerError, "internal server error")
		}

		c.JSON(apiErr.Code, gin.H{
			"statusCode": apiErr.Code,
			"message":    apiErr.Message,
			"success":    false,
			"errors":     apiErr.Errors,
		})
	}
}

// mapServiceError translates service sentinels into API errors with
// the matching HTTP status.
func mapServiceError(err error) *APIError {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return NewAPIError(http.StatusBadRequest, "all required fields must be provided")
	case errors.Is(err, service.ErrAvatarUpload):
		return NewAPIError(http.StatusBadRequest, "avatar is required")
	case errors.Is(err, service.ErrSelfSubscription):
		return NewAPIError(http.StatusBadRequest, "cannot subscribe to own channel")
	case errors.Is(err, service.ErrInvalidCredentials):
		return NewAPIError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenExpired):
		return NewAPIError(http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, service.ErrUserNotFound):
		return NewAPIError(http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrVideoNotFound):
		return NewAPIError(http.StatusNotFound, "video not found")
	case errors.Is(err, service.ErrUserExists):
		return NewAPIError(http.StatusConflict, "user already exists with same email or username")
	case errors.Is(err, service.ErrRateLimited):
		return NewAPIError(http.StatusTooManyRequests, "too many attempts, try again later")
	default:
		return NewAPIError(http.StatusInternalServerError, "internal server error")
	}
}
