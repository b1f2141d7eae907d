package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) getWishlist(c echo.Context) error {
	entries, err := s.deps.Wishlists.Get(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Wishlist retrieved successfully", newWishlistJSON(entries))
}

func (s *Server) addToWishlist(c echo.Context) error {
	if err := s.deps.Wishlists.Add(c.Request().Context(), actor(c).UserID, c.Param("productId")); err != nil {
		return err
	}
	return s.getWishlist(c)
}

func (s *Server) removeFromWishlist(c echo.Context) error {
	if err := s.deps.Wishlists.Remove(c.Request().Context(), actor(c).UserID, c.Param("productId")); err != nil {
		return err
	}
	return s.getWishlist(c)
}
