package server

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type statusCoder interface {
	HTTPStatus() int
}

// writeError renders a typed error with its own status and a {"detail": ...}
// body. Server-side failures never expose their message.
func (s *Server) writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var coded statusCoder
	if errors.As(err, &coded) {
		status = coded.HTTPStatus()
	}

	detail := http.StatusText(status)
	var authErr *apperrors.AuthorizationError
	var validationErr *apperrors.ValidationError
	var upstreamErr *apperrors.UpstreamError

	switch {
	case errors.As(err, &authErr):
		detail = authErr.Message
		s.logger.Info("Authorization error", zap.String("path", c.Request().URL.Path))
	case errors.As(err, &validationErr):
		detail = validationErr.Message
		s.logger.Info("Validation error",
			zap.String("field", validationErr.Field),
			zap.Any("value", validationErr.Value))
	case errors.As(err, &upstreamErr):
		s.logger.Error("Upstream service error",
			zap.String("service", upstreamErr.Service),
			zap.String("operation", upstreamErr.Operation),
			zap.Error(err))
	default:
		s.logger.Error("Internal error", zap.Error(err))
	}

	if err := c.JSON(status, errorResponse{Detail: detail}); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}

// httpErrorHandler renders router errors (404, 405, recovered panics) in the same shape.
func httpErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
		} else {
			logger.Error("Unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}

		if err := c.JSON(status, errorResponse{Detail: http.StatusText(status)}); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}
