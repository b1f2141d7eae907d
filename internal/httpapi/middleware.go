package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

const (
	// HeaderIdempotencyKey — ключ повторной отправки для POST /api/orders.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay отмечает ответ, взятый из сохранённого результата.
	HeaderIdempotentReplay = "Idempotent-Replayed"

	principalKey = "principal"
)

// requestLogger пишет одну запись на запрос.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		entry := s.logger.WithFields(log.Fields{
			"request_id": res.Header().Get(echo.HeaderXRequestID),
			"method":     req.Method,
			"route":      c.Path(),
			"uri":        req.RequestURI,
			"status":     res.Status,
			"bytes":      res.Size,
			"duration":   time.Since(started).String(),
		})
		switch {
		case res.Status >= http.StatusInternalServerError:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}
		return nil
	}
}

func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.ObserveHTTP(c.Request().Method, route, status, time.Since(started))
		return err
	}
}

// authenticate разбирает bearer-токен, если он есть. Неверный токен — 401,
// отсутствие токена решают requireUser и requireAdmin.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" || s.deps.Verifier == nil {
			return next(c)
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return domain.ErrUnauthorized
		}
		principal, err := s.deps.Verifier.Verify(token)
		if err != nil {
			return err
		}
		c.Set(principalKey, principal)
		return next(c)
	}
}

func principalOf(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.UserID != ""
}

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := principalOf(c); !ok {
			return domain.ErrUnauthorized
		}
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principalOf(c)
		if !ok {
			return domain.ErrUnauthorized
		}
		if !p.IsAdmin() {
			return domain.ErrForbidden
		}
		return next(c)
	}
}

// idempotent сохраняет ответ по Idempotency-Key и отдаёт его при повторе.
// Без заголовка запрос проходит как обычно.
func (s *Server) idempotent(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
		if key == "" || s.deps.Idempotency == nil {
			return next(c)
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
		}
		c.Request().Body = io.NopCloser(bytes.NewReader(body))

		p, _ := principalOf(c)
		hash := idempotency.HashRequest(c.Request().Method, c.Path(), p.UserID, body)
		ctx := c.Request().Context()

		replay, err := s.deps.Idempotency.Begin(ctx, key, hash)
		if err != nil {
			return err
		}
		if replay != nil {
			c.Response().Header().Set(HeaderIdempotentReplay, "true")
			return c.Blob(replay.HTTPStatus, echo.MIMEApplicationJSONCharsetUTF8, replay.Body)
		}

		rec := &captureWriter{ResponseWriter: c.Response().Writer}
		c.Response().Writer = rec
		if err := next(c); err != nil {
			c.Error(err)
		}
		s.deps.Idempotency.Complete(ctx, key, c.Response().Status, rec.buf.Bytes())
		return nil
	}
}

// captureWriter дублирует тело ответа в буфер.
type captureWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *captureWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
