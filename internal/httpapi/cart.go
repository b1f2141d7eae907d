package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
)

func (r cartItemRequest) toInput() cart.ItemInput {
	return cart.ItemInput(r)
}

func (s *Server) getCart(c echo.Context) error {
	ct, err := s.deps.Carts.Get(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cart retrieved successfully", newCartJSON(ct))
}

func (s *Server) addCartItem(c echo.Context) error {
	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ct, err := s.deps.Carts.Add(c.Request().Context(), actor(c).UserID, req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Item added to cart", newCartJSON(ct))
}

// updateCartItem меняет количество варианта. Размер и цвет берутся из тела,
// а если их там нет, из query.
func (s *Server) updateCartItem(c echo.Context) error {
	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.ProductID = c.Param("productId")
	if req.SelectedSize == "" {
		req.SelectedSize = c.QueryParam("selectedSize")
	}
	if req.SelectedColor == "" {
		req.SelectedColor = c.QueryParam("selectedColor")
	}
	ct, err := s.deps.Carts.SetQuantity(c.Request().Context(), actor(c).UserID, req.toInput())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cart updated successfully", newCartJSON(ct))
}

func (s *Server) removeCartItem(c echo.Context) error {
	ct, err := s.deps.Carts.Remove(c.Request().Context(), actor(c).UserID, c.Param("productId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Item removed from cart", newCartJSON(ct))
}

func (s *Server) clearCart(c echo.Context) error {
	ct, err := s.deps.Carts.Clear(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cart cleared", newCartJSON(ct))
}
