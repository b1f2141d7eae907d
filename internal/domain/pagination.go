package domain

const (
	// DefaultPageLimit — размер страницы по умолчанию.
	DefaultPageLimit = 10
	// MaxPageLimit — верхняя граница размера страницы.
	MaxPageLimit = 100
)

// PageRequest — номер страницы (с 1) и её размер.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest нормализует параметры пагинации.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset возвращает число пропускаемых записей.
func (p PageRequest) Offset() int {
	p = NewPageRequest(p.Page, p.Limit)
	return (p.Page - 1) * p.Limit
}

// PageInfo описывает страницу в ответе API.
type PageInfo struct {
	CurrentPage int
	TotalPages  int
	Total       int
	Limit       int
}

// Info строит PageInfo по общему числу записей.
func (p PageRequest) Info(total int) PageInfo {
	p = NewPageRequest(p.Page, p.Limit)
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{CurrentPage: p.Page, TotalPages: pages, Total: total, Limit: p.Limit}
}

// Paginate вырезает страницу из уже отсортированного среза.
func Paginate[T any](items []T, p PageRequest) []T {
	offset := p.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + NewPageRequest(p.Page, p.Limit).Limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
