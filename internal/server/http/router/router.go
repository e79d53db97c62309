package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/metrics"
	"github.com/polkiloo/shopmart/internal/server/http/handlers"
	"github.com/polkiloo/shopmart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.ShopFacade, health handlers.HealthChecker, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	productHandler := handlers.NewProductHandler(facade)
	reviewHandler := handlers.NewReviewHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	healthHandler := handlers.NewHealthHandler(health)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	authRequired := middleware.AuthRequired(facade)
	adminRequired := middleware.AdminRequired()

	api := engine.Group("/api")

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)
	user.GET("/verify", authHandler.Verify)

	userAuth := user.Group("")
	userAuth.Use(authRequired)
	userAuth.GET("/me", authHandler.Me)
	userAuth.PATCH("/me", authHandler.UpdateMe)
	userAuth.PUT("/me/password", authHandler.ChangePassword)

	userAuth.GET("/cart", cartHandler.List)
	userAuth.POST("/cart", cartHandler.Add)
	userAuth.DELETE("/cart", cartHandler.Clear)
	userAuth.PATCH("/cart/:lineId", cartHandler.Change)
	userAuth.DELETE("/cart/:lineId", cartHandler.Remove)
	userAuth.DELETE("/cart/products/:productId", cartHandler.RemoveProduct)

	userAuth.POST("/orders", orderHandler.Checkout)
	userAuth.POST("/orders/cart", orderHandler.CheckoutCart)
	userAuth.GET("/orders", orderHandler.List)
	userAuth.GET("/orders/:id", orderHandler.Get)
	userAuth.POST("/orders/:id/payment", orderHandler.RetryPayment)
	userAuth.POST("/orders/:id/cancel", orderHandler.Cancel)

	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/popular", productHandler.Popular)
	products.GET("/:id", productHandler.Detail)
	products.POST("/:id/reviews", authRequired, reviewHandler.Create)
	products.POST("", authRequired, adminRequired, productHandler.Create)
	products.PUT("/:id", authRequired, adminRequired, productHandler.Update)
	products.DELETE("/:id", authRequired, adminRequired, productHandler.Delete)

	reviews := api.Group("/reviews")
	reviews.GET("/:id", reviewHandler.Get)
	reviews.PUT("/:id", authRequired, reviewHandler.Update)

	admin := api.Group("/admin")
	admin.Use(authRequired, adminRequired)
	admin.PATCH("/orders/:id/status", orderHandler.AdvanceStatus)
	admin.PATCH("/products/:id/stock", productHandler.AdjustStock)

	payment := api.Group("/payment")
	payment.GET("/success", paymentHandler.Success)
	payment.GET("/cancel", paymentHandler.Cancel)
	payment.GET("/fail", paymentHandler.Fail)

	return engine
}
