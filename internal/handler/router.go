package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every endpoint handler served by the API
type Handlers struct {
	Auth      *AuthHandler
	Wallet    *WalletHandler
	Bot       *BotHandler
	Fund      *FundHandler
	Position  *PositionHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler
	Feed      *FeedHandler
}

// Guards are the middlewares applied in front of route groups. API limits
// every /api/v1 request; the others limit a single action.
type Guards struct {
	Auth         gin.HandlerFunc
	API          gin.HandlerFunc
	Login        gin.HandlerFunc
	Register     gin.HandlerFunc
	WalletCreate gin.HandlerFunc
}

// RegisterRoutes mounts /health and the /api/v1 tree on router
func RegisterRoutes(router *gin.Engine, h Handlers, g Guards) {
	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	v1.Use(g.API)
	{
		v1.GET("/ping", h.Health.Ping)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", g.Register, h.Auth.Register)
			auth.POST("/login", g.Login, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", g.Auth, h.Auth.Logout)
			auth.GET("/me", g.Auth, h.Auth.GetMe)
		}

		wallets := v1.Group("/wallets")
		wallets.Use(g.Auth)
		{
			wallets.POST("", g.WalletCreate, h.Wallet.Create)
			wallets.GET("", h.Wallet.List)
			wallets.POST("/access", h.Wallet.GrantAccess)
			wallets.DELETE("/access/:user/:name", h.Wallet.RevokeAccess)
			wallets.GET("/:name", h.Wallet.Get)
			wallets.DELETE("/:name", h.Wallet.Delete)
		}

		bots := v1.Group("/bots")
		bots.Use(g.Auth)
		{
			bots.POST("", h.Bot.CreateBot)
			bots.GET("", h.Bot.ListBots)
			bots.GET("/:name", h.Bot.GetBot)
		}

		funds := v1.Group("/funds")
		funds.Use(g.Auth)
		{
			funds.POST("", h.Fund.Create)
			funds.GET("", h.Fund.LatestAll)
			funds.GET("/:bot", h.Fund.Latest)
		}

		positions := v1.Group("/positions")
		positions.Use(g.Auth)
		{
			positions.POST("", h.Position.Open)
			positions.GET("", h.Position.List)
			positions.PUT("/:id/sell", h.Position.Close)
			positions.PATCH("/:id/log", h.Position.SetLogFlags)
		}

		dashboard := v1.Group("/dashboard")
		dashboard.Use(g.Auth)
		{
			dashboard.GET("/overview/:bot", h.Dashboard.Overview)
			dashboard.GET("/performance/:bot", h.Dashboard.Performance)
			dashboard.GET("/recent-trades/:bot", h.Dashboard.RecentTrades)
			dashboard.GET("/trades/:id", h.Dashboard.TradeDetail)
		}

		v1.GET("/ws/positions", g.Auth, h.Feed.Positions)
	}
}
