// Package httpapi — REST/JSON API магазина поверх echo.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/review"
	"github.com/vladislavdragonenkov/storefront/internal/service/wishlist"
)

// Config — настройки HTTP-слоя.
type Config struct {
	// Production скрывает stack trace в ответах 500.
	Production bool
	// BodyLimit — максимальный размер тела запроса, например "1M".
	BodyLimit string
	// AllowOrigins — источники, которым разрешён CORS. Пусто — CORS выключен.
	AllowOrigins []string
}

// Deps — сервисы, которые обслуживает API.
type Deps struct {
	Orders      *order.Service
	Catalog     *catalog.Service
	Carts       *cart.Service
	Reviews     *review.Service
	Wishlists   *wishlist.Service
	Verifier    *auth.Verifier
	Idempotency *idempotency.Guard
	Metrics     *metrics.Metrics
	Logger      *log.Entry
}

// Server держит echo-роутер и зависимости обработчиков.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	cfg    Config
	logger *log.Entry
}

// NewServer собирает роутер со всеми маршрутами.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "1M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, deps: deps, cfg: cfg, logger: logger}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)
	e.Use(s.observe)
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, HeaderIdempotencyKey},
		}))
	}
	e.Use(s.authenticate)

	s.routes()
	return s
}

// Handler возвращает http.Handler для http.Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	user := s.requireUser
	admin := s.requireAdmin

	orders := api.Group("/orders")
	orders.POST("", s.createOrder, user, s.idempotent)
	orders.GET("", s.listOrders, user)
	orders.GET("/lookup/:orderId", s.lookupOrder)
	orders.GET("/:id", s.getOrder, user)
	orders.GET("/:id/timeline", s.orderTimeline, user)
	orders.PUT("/:id", s.updateOrder, admin)
	orders.POST("/:id/cancel", s.cancelOrder, user)
	orders.DELETE("/:id", s.deleteOrder, admin)

	products := api.Group("/products")
	products.GET("", s.listProducts)
	products.POST("", s.createProduct, admin)
	products.GET("/:id", s.getProduct)
	products.PUT("/:id", s.updateProduct, admin)
	products.DELETE("/:id", s.deleteProduct, admin)
	products.GET("/:id/stock", s.productStock, admin)
	products.GET("/:id/reviews", s.listProductReviews)
	products.POST("/:id/reviews", s.createReview, user)

	categories := api.Group("/categories")
	categories.GET("", s.listCategories)
	categories.POST("", s.createCategory, admin)
	categories.PUT("/:id", s.updateCategory, admin)
	categories.DELETE("/:id", s.deleteCategory, admin)

	brands := api.Group("/brands")
	brands.GET("", s.listBrands)
	brands.POST("", s.createBrand, admin)
	brands.PUT("/:id", s.updateBrand, admin)
	brands.DELETE("/:id", s.deleteBrand, admin)

	carts := api.Group("/cart", user)
	carts.GET("", s.getCart)
	carts.POST("/items", s.addCartItem)
	carts.PUT("/items/:productId", s.updateCartItem)
	carts.DELETE("/items/:productId", s.removeCartItem)
	carts.DELETE("", s.clearCart)

	reviews := api.Group("/reviews", user)
	reviews.PUT("/:id", s.updateReview)
	reviews.DELETE("/:id", s.deleteReview)

	wishlists := api.Group("/wishlist", user)
	wishlists.GET("", s.getWishlist)
	wishlists.POST("/:productId", s.addToWishlist)
	wishlists.DELETE("/:productId", s.removeFromWishlist)

	adm := api.Group("/admin", admin)
	adm.GET("/orders", s.listAllOrders)
	adm.GET("/orders/:id/stock", s.orderStock)
	adm.GET("/reviews", s.listAllReviews)
	adm.PUT("/reviews/:id/status", s.moderateReview)
	adm.PUT("/reviews/:id/reply", s.replyReview)
}
