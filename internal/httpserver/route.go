package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/storefront/internal/service"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// WebhookPath is exempt from CSRF checks; the processor signs its requests.
const WebhookPath = "/api/v1/webhooks/stripe"

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	CatalogHandler *CatalogHTTP
	AuthHandler    *AuthHTTP
	WebhookHandler *WebhookHTTP
	HealthHandler  *HealthHTTP

	JWTSecret []byte
	// AuthRateLimit is requests per second per client IP on /auth; zero disables it.
	AuthRateLimit float64
}

// sessionRefresher lets the cookie middleware rotate tokens through the
// auth service.
func sessionRefresher(auth *service.AuthService) middleware.Refresher {
	return middleware.RefresherFunc(func(ctx context.Context, token string) (*middleware.RefreshResult, error) {
		s, err := auth.Refresh(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.RefreshResult{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			AccessExp:    s.AccessExp,
			RefreshExp:   s.RefreshExp,
		}, nil
	})
}

func Register(e *echo.Echo, d *Deps) {
	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, sessionRefresher(d.AuthHandler.Svc))

	v1 := e.Group("/api/v1")

	v1.GET("/health/live", d.HealthHandler.Live)
	v1.GET("/health/ready", d.HealthHandler.Ready)

	auth := v1.Group("/auth")
	if d.AuthRateLimit > 0 {
		auth.Use(echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
			Store: echomw.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)),
		}))
	}
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)

	catalog := v1.Group("/catalog")
	catalog.GET("/products", d.CatalogHandler.GetProducts)
	catalog.GET("/products/search", d.CatalogHandler.SearchProducts)
	catalog.GET("/products/:id", d.CatalogHandler.GetProduct)
	catalog.GET("/categories", d.CatalogHandler.GetCategories)

	cart := v1.Group("/cart", authMW.OptionalAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.PATCH("/items/:id", d.CartHandler.SetQuantity)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)

	orders := v1.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder, authMW.OptionalAuth)
	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
	orders.POST("/:id/payment", d.OrderHandler.RetryPayment, authMW.RequireAuth)

	admin := v1.Group("/admin", authMW.RequireAdmin)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/products/:id/inventory", d.CatalogHandler.AdjustInventory)
	admin.PATCH("/orders/:id", d.OrderHandler.UpdateStatus)

	e.POST(WebhookPath, d.WebhookHandler.Stripe)
}
