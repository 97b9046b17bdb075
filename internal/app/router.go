package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	carthandler "github.com/crowrepuestos/storefront/internal/cart/handler/http"
	cartservice "github.com/crowrepuestos/storefront/internal/cart/service"
	cataloghandler "github.com/crowrepuestos/storefront/internal/catalog/handler/http"
	catalogservice "github.com/crowrepuestos/storefront/internal/catalog/service"
	orderhandler "github.com/crowrepuestos/storefront/internal/order/handler/http"
	orderservice "github.com/crowrepuestos/storefront/internal/order/service"
	userdomain "github.com/crowrepuestos/storefront/internal/user/domain"
	userhandler "github.com/crowrepuestos/storefront/internal/user/handler/http"
	userservice "github.com/crowrepuestos/storefront/internal/user/service"
	wishlisthandler "github.com/crowrepuestos/storefront/internal/wishlist/handler/http"
	wishlistservice "github.com/crowrepuestos/storefront/internal/wishlist/service"
	"github.com/crowrepuestos/storefront/pkg/health"
	"github.com/crowrepuestos/storefront/pkg/middleware"
)

// routerDeps bundles everything the router needs.
type routerDeps struct {
	catalogService  *catalogservice.ProductService
	cartService     *cartservice.CartService
	wishlistService *wishlistservice.WishlistService
	userService     *userservice.UserService
	orderService    *orderservice.OrderService
	healthHandler   *health.Handler
	logger          *slog.Logger
	corsConfig      middleware.CORSConfig
	serviceName     string
}

// newRouter builds the chi router with all storefront routes registered.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(deps.corsConfig))
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestLogging(deps.logger))
	r.Use(middleware.RequestLogger(deps.logger))
	r.Use(middleware.PrometheusMetrics(deps.serviceName))
	r.Use(middleware.Tracing(deps.serviceName))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health/live", deps.healthHandler.LivenessHandler())
	r.Get("/health/ready", deps.healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	auth := middleware.Auth(deps.userService.ValidateAccessToken)
	adminOnly := middleware.RequireRole(userdomain.RoleAdmin)

	// Catalog (public reads, admin writes).
	productHandler := cataloghandler.NewProductHandler(deps.catalogService, deps.logger)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.Get)
		r.Get("/slug/{slug}", productHandler.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)
			r.Post("/", productHandler.Create)
			r.Patch("/{id}/stock", productHandler.UpdateStock)
		})
	})

	// Auth.
	authHandler := userhandler.NewAuthHandler(deps.userService, deps.logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(auth).Post("/logout", authHandler.Logout)
	})

	// Profile.
	profileHandler := userhandler.NewUserHandler(deps.userService, deps.logger)
	r.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", profileHandler.GetMe)
		r.Patch("/", profileHandler.UpdateMe)
		r.Put("/password", profileHandler.ChangePassword)
	})

	// Cart.
	cartHandler := carthandler.NewCartHandler(deps.cartService, deps.logger)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", cartHandler.Get)
		r.Delete("/", cartHandler.Clear)
		r.Post("/items", cartHandler.AddItem)
		r.Patch("/items/{productId}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{productId}", cartHandler.RemoveItem)
	})

	// Wishlist.
	wishlistHandler := wishlisthandler.NewWishlistHandler(deps.wishlistService, deps.logger)
	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", wishlistHandler.List)
		r.Delete("/", wishlistHandler.Clear)
		r.Post("/items", wishlistHandler.AddItem)
		r.Get("/items/{productId}", wishlistHandler.Contains)
		r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
	})

	// Orders.
	orderHandler := orderhandler.NewOrderHandler(deps.orderService, deps.logger)
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", orderHandler.Checkout)
		r.Get("/", orderHandler.List)
		r.Get("/{id}", orderHandler.Get)
		r.Post("/{id}/cancel", orderHandler.Cancel)
	})

	return r
}
