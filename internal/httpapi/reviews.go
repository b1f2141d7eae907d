package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/review"
)

func (s *Server) listProductReviews(c echo.Context) error {
	reviews, info, err := s.deps.Reviews.ListForProduct(c.Request().Context(), c.Param("id"), pageRequest(c))
	if err != nil {
		return err
	}
	return respondPage(c, "Reviews retrieved successfully", newReviewsJSON(reviews), info)
}

func (s *Server) createReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var in review.CreateInput
	if req.Rating != nil {
		in.Rating = *req.Rating
	}
	if req.Comment != nil {
		in.Comment = *req.Comment
	}
	r, err := s.deps.Reviews.Create(c.Request().Context(), actor(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Review submitted for moderation", newReviewJSON(r))
}

func (s *Server) updateReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	r, err := s.deps.Reviews.Update(c.Request().Context(), actor(c), c.Param("id"), review.UpdateInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Review updated successfully", newReviewJSON(r))
}

func (s *Server) deleteReview(c echo.Context) error {
	if err := s.deps.Reviews.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Review deleted successfully", nil)
}

func (s *Server) listAllReviews(c echo.Context) error {
	status, err := reviewStatusParam(c)
	if err != nil {
		return err
	}
	reviews, info, err := s.deps.Reviews.ListAll(c.Request().Context(), status, pageRequest(c))
	if err != nil {
		return err
	}
	return respondPage(c, "Reviews retrieved successfully", newReviewsJSON(reviews), info)
}

func (s *Server) moderateReview(c echo.Context) error {
	var req moderateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	status, err := domain.ParseReviewStatus(req.Status)
	if err != nil {
		return err
	}
	r, err := s.deps.Reviews.Moderate(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Review status updated", newReviewJSON(r))
}

func (s *Server) replyReview(c echo.Context) error {
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	r, err := s.deps.Reviews.Reply(c.Request().Context(), c.Param("id"), req.Reply)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Reply saved", newReviewJSON(r))
}
