package httpapi

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const internalErrorMessage = "Internal server error"

// statusOf сопоставляет доменную ошибку HTTP-статусу.
// Валидация проверяется первой: ошибки позиции заказа могут оборачивать
// и «товар не найден», и при этом остаются ошибкой ввода.
func statusOf(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsIdempotencyConflict(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler пишет ошибку в конверте. 500 скрывает детали от клиента.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusOf(err)
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(httpErr.Code)
		}
	}

	body := errorEnvelope{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	}
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"method": c.Request().Method,
		"route":  c.Path(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		body.Message = internalErrorMessage
		if !s.cfg.Production {
			body.Error = err.Error()
			body.Stack = string(debug.Stack())
		}
	} else {
		entry.Debug("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.WithError(err).Warn("failed to write error response")
	}
}
