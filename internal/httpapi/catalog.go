package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

func (r productRequest) toInput() catalog.ProductInput {
	return catalog.ProductInput{
		Name:          r.Name,
		Slug:          r.Slug,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Stock:         r.Stock,
		Images:        r.Images,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		CategoryID:    r.CategoryID,
		BrandID:       r.BrandID,
		IsActive:      r.IsActive,
		IsXakho:       r.IsXakho,
		IsFeatured:    r.IsFeatured,
		IsNewArrival:  r.IsNewArrival,
	}
}

func (r taxonomyRequest) toInput() catalog.TaxonomyInput {
	return catalog.TaxonomyInput(r)
}

func (s *Server) listProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}
	products, info, err := s.deps.Catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondPage(c, "Products retrieved successfully", newProductsJSON(products), info)
}

// getProduct принимает id или slug.
func (s *Server) getProduct(c echo.Context) error {
	p, err := s.deps.Catalog.GetProduct(c.Request().Context(), c.Param("id"), includeInactive(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product retrieved successfully", newProductJSON(p))
}

func (s *Server) createProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	p, err := s.deps.Catalog.CreateProduct(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Product created successfully", newProductJSON(p))
}

func (s *Server) updateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	p, err := s.deps.Catalog.UpdateProduct(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product updated successfully", newProductJSON(p))
}

func (s *Server) deleteProduct(c echo.Context) error {
	if err := s.deps.Catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product deleted successfully", nil)
}

func (s *Server) productStock(c echo.Context) error {
	moves, err := s.deps.Catalog.StockHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Stock history retrieved successfully", newStockMovementsJSON(moves))
}

func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.deps.Catalog.ListCategories(c.Request().Context(), includeInactive(c))
	if err != nil {
		return err
	}
	out := make([]categoryJSON, 0, len(categories))
	for _, cat := range categories {
		out = append(out, newCategoryJSON(cat))
	}
	return respond(c, http.StatusOK, "Categories retrieved successfully", out)
}

func (s *Server) createCategory(c echo.Context) error {
	var req taxonomyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	cat, err := s.deps.Catalog.CreateCategory(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Category created successfully", newCategoryJSON(cat))
}

func (s *Server) updateCategory(c echo.Context) error {
	var req taxonomyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	cat, err := s.deps.Catalog.UpdateCategory(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Category updated successfully", newCategoryJSON(cat))
}

func (s *Server) deleteCategory(c echo.Context) error {
	if err := s.deps.Catalog.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Category deleted successfully", nil)
}

func (s *Server) listBrands(c echo.Context) error {
	brands, err := s.deps.Catalog.ListBrands(c.Request().Context(), includeInactive(c))
	if err != nil {
		return err
	}
	out := make([]brandJSON, 0, len(brands))
	for _, b := range brands {
		out = append(out, newBrandJSON(b))
	}
	return respond(c, http.StatusOK, "Brands retrieved successfully", out)
}

func (s *Server) createBrand(c echo.Context) error {
	var req taxonomyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	b, err := s.deps.Catalog.CreateBrand(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Brand created successfully", newBrandJSON(b))
}

func (s *Server) updateBrand(c echo.Context) error {
	var req taxonomyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	b, err := s.deps.Catalog.UpdateBrand(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Brand updated successfully", newBrandJSON(b))
}

func (s *Server) deleteBrand(c echo.Context) error {
	if err := s.deps.Catalog.DeleteBrand(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Brand deleted successfully", nil)
}
