package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// envelope — единая форма успешного ответа.
type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       any             `json:"data,omitempty"`
	Pagination *paginationJSON `json:"pagination,omitempty"`
}

// errorEnvelope — форма ответа с ошибкой. Stack заполняется только вне production.
type errorEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	Stack      string `json:"stack,omitempty"`
}

type paginationJSON struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Total       int `json:"total"`
	Limit       int `json:"limit"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func respondPage(c echo.Context, message string, data any, info domain.PageInfo) error {
	return c.JSON(http.StatusOK, envelope{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    message,
		Data:       data,
		Pagination: &paginationJSON{
			CurrentPage: info.CurrentPage,
			TotalPages:  info.TotalPages,
			Total:       info.Total,
			Limit:       info.Limit,
		},
	})
}
