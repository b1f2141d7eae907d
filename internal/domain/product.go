package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product — товар каталога.
type Product struct {
	ID            string
	Name          string
	Slug          string
	Description   string
	Price         int64
	OriginalPrice int64
	Stock         int
	Sold          int
	Rating        float64
	Reviews       int
	Images        []string
	Sizes         []string
	Colors        []string
	CategoryID    string
	BrandID       string
	IsActive      bool
	IsXakho       bool
	IsFeatured    bool
	IsNewArrival  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет поля, которые задаёт администратор.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.Price < 0 || p.OriginalPrice < 0 {
		return fmt.Errorf("%w: price", ErrAmountNegative)
	}
	if p.Stock < 0 {
		return ErrStockNegative
	}
	return nil
}

// MainImage возвращает первое изображение товара.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Clone копирует товар вместе со срезами.
func (p Product) Clone() Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Sizes = append([]string(nil), p.Sizes...)
	out.Colors = append([]string(nil), p.Colors...)
	return out
}

// ProductSort задаёт порядок выдачи каталога.
type ProductSort string

const (
	ProductSortNewest      ProductSort = "newest"
	ProductSortPriceAsc    ProductSort = "price_asc"
	ProductSortPriceDesc   ProductSort = "price_desc"
	ProductSortBestSelling ProductSort = "best_selling"
	ProductSortRating      ProductSort = "rating"
)

// ParseProductSort разбирает сортировку, неизвестные значения дают newest.
func ParseProductSort(raw string) ProductSort {
	switch s := ProductSort(strings.ToLower(strings.TrimSpace(raw))); s {
	case ProductSortPriceAsc, ProductSortPriceDesc, ProductSortBestSelling, ProductSortRating:
		return s
	default:
		return ProductSortNewest
	}
}

// ProductFilter — параметры выборки каталога.
// Нулевые значения означают отсутствие фильтра.
type ProductFilter struct {
	Search          string
	CategoryID      string
	BrandID         string
	MinPrice        int64
	MaxPrice        int64
	OnlyFeatured    bool
	OnlyNewArrival  bool
	OnlyXakho       bool
	OnlyInStock     bool
	IncludeInactive bool
	Sort            ProductSort
	Page            PageRequest
}

// Category — раздел каталога.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Brand — производитель товара.
type Brand struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Logo        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
