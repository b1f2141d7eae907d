package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

func (s *Server) createOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	res, err := s.deps.Orders.Create(c.Request().Context(), req.toInput(actor(c).UserID))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Order created successfully", newCreateOrderResponse(res))
}

func (s *Server) listOrders(c echo.Context) error {
	status, err := orderStatusParam(c)
	if err != nil {
		return err
	}
	orders, info, err := s.deps.Orders.List(c.Request().Context(), actor(c), status, pageRequest(c))
	if err != nil {
		return err
	}
	return respondPage(c, "Orders retrieved successfully", newOrdersJSON(orders), info)
}

func (s *Server) listAllOrders(c echo.Context) error {
	status, err := orderStatusParam(c)
	if err != nil {
		return err
	}
	orders, info, err := s.deps.Orders.ListAll(c.Request().Context(), status, pageRequest(c))
	if err != nil {
		return err
	}
	return respondPage(c, "Orders retrieved successfully", newOrdersJSON(orders), info)
}

// lookupOrder — публичный поиск заказа по id, окончанию id, коду или адресу.
func (s *Server) lookupOrder(c echo.Context) error {
	view, err := s.deps.Orders.Lookup(c.Request().Context(), c.Param("orderId"), c.QueryParam("phone"))
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, order.LookupNotFoundMessage)
	case err != nil:
		return err
	}
	return respond(c, http.StatusOK, "Order found", newLookupJSON(view))
}

func (s *Server) getOrder(c echo.Context) error {
	o, err := s.deps.Orders.Get(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order retrieved successfully", newOrderJSON(o))
}

func (s *Server) orderTimeline(c echo.Context) error {
	events, err := s.deps.Orders.Timeline(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Timeline retrieved successfully", newTimelineJSON(events))
}

func (s *Server) orderStock(c echo.Context) error {
	moves, err := s.deps.Orders.StockMovements(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Stock movements retrieved successfully", newStockMovementsJSON(moves))
}

func (s *Server) updateOrder(c echo.Context) error {
	var req updateOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	in := order.UpdateInput{
		OrderID:       c.Param("id"),
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		AdminNote:     req.AdminNote,
		Override:      req.Override,
	}
	if req.Status != "" {
		status, err := domain.ParseOrderStatus(req.Status)
		if err != nil {
			return err
		}
		in.Status = status
	}
	o, err := s.deps.Orders.UpdateStatus(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order updated successfully", newOrderJSON(o))
}

func (s *Server) cancelOrder(c echo.Context) error {
	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	o, err := s.deps.Orders.Cancel(c.Request().Context(), actor(c), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order cancelled successfully", newOrderJSON(o))
}

func (s *Server) deleteOrder(c echo.Context) error {
	if err := s.deps.Orders.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order deleted successfully", nil)
}
