package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler      *AuthHandler
	PortfolioHandler *PortfolioHandler
	TradeHandler     *TradeHandler
	AssetHandler     *AssetHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Health checks poll frequently; keep them out of the log.
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "findurcapitalkrooker-api",
		})
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	// Portfolio routes (protected)
	portfolio := api.Group("/portfolio", custommiddleware.AuthMiddleware)
	{
		portfolio.GET("", config.PortfolioHandler.GetPortfolio)
		portfolio.GET("/history", config.PortfolioHandler.GetHistory)
	}

	// Trade routes (protected)
	trade := api.Group("/trade", custommiddleware.AuthMiddleware)
	{
		trade.POST("/buy/:symbol", config.TradeHandler.Buy)
		trade.POST("/short/:symbol", config.TradeHandler.Short)
		trade.POST("/sell_cover/:symbol", config.TradeHandler.SellCover)
	}

	// Asset catalog routes (protected)
	assets := api.Group("/assets", custommiddleware.AuthMiddleware)
	{
		assets.GET("", config.AssetHandler.List)
		assets.GET("/search", config.AssetHandler.Search)
		assets.GET("/:symbol", config.AssetHandler.Get)
		assets.GET("/:symbol/history/:period", config.AssetHandler.History)
	}
}
