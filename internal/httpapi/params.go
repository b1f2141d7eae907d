package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// pageRequest читает page и limit. Мусор в параметрах даёт значения по умолчанию.
func pageRequest(c echo.Context) domain.PageRequest {
	var page, limit int
	_ = echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError()
	return domain.NewPageRequest(page, limit)
}

func orderStatusParam(c echo.Context) (domain.OrderStatus, error) {
	raw := strings.TrimSpace(c.QueryParam("status"))
	if raw == "" {
		return "", nil
	}
	return domain.ParseOrderStatus(raw)
}

func reviewStatusParam(c echo.Context) (domain.ReviewStatus, error) {
	raw := strings.TrimSpace(c.QueryParam("status"))
	if raw == "" {
		return "", nil
	}
	return domain.ParseReviewStatus(raw)
}

// productFilter разбирает параметры каталога.
func productFilter(c echo.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Search:     strings.TrimSpace(c.QueryParam("search")),
		CategoryID: strings.TrimSpace(c.QueryParam("categoryId")),
		BrandID:    strings.TrimSpace(c.QueryParam("brandId")),
		Sort:       domain.ParseProductSort(c.QueryParam("sort")),
		Page:       pageRequest(c),
	}
	err := echo.QueryParamsBinder(c).
		Int64("minPrice", &filter.MinPrice).
		Int64("maxPrice", &filter.MaxPrice).
		Bool("featured", &filter.OnlyFeatured).
		Bool("newArrival", &filter.OnlyNewArrival).
		Bool("xakho", &filter.OnlyXakho).
		Bool("inStock", &filter.OnlyInStock).
		BindError()
	if err != nil {
		return domain.ProductFilter{}, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameter")
	}
	filter.IncludeInactive = includeInactive(c)
	return filter, nil
}

// includeInactive учитывается только для администратора.
func includeInactive(c echo.Context) bool {
	p, ok := principalOf(c)
	if !ok || !p.IsAdmin() {
		return false
	}
	var v bool
	_ = echo.QueryParamsBinder(c).Bool("includeInactive", &v).BindError()
	return v
}

func actor(c echo.Context) domain.Principal {
	p, _ := principalOf(c)
	return p
}
