package server

import (
	"net/http"
	"time"

	"auction-backend/internal/config"
	"auction-backend/services/helpers"
	"auction-backend/utils"

	biddinghandler "auction-backend/services/bidding/handler"
	cataloghandler "auction-backend/services/catalog/handler"
	identityhandler "auction-backend/services/identity/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionMaxAge = 12 * time.Hour

// Services bundles what the HTTP layer calls into
type Services struct {
	Bidding  biddinghandler.BiddingServiceInterface
	Catalog  cataloghandler.CatalogServiceInterface
	Identity interface {
		identityhandler.IdentityServiceInterface
		IdentityResolver
	}
	Clock utils.Clock
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	secret := cfg.SessionSecret
	if secret == "" {
		// only reachable outside release mode
		secret = utils.GenerateID()
		utils.Warn("SESSION_SECRET not set, sessions will not survive a restart", nil)
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(helpers.SessionCookieName, store))

	biddingHandler := biddinghandler.NewBiddingHandler(svc.Bidding, svc.Clock)
	catalogHandler := cataloghandler.NewCatalogHandler(svc.Catalog, svc.Clock)
	authHandler := identityhandler.NewAuthHandler(svc.Identity)
	requireLogin := RequireLogin(svc.Identity)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"store": cfg.StoreDriver}, "ok")
	})

	router.POST("/register", authHandler.RegisterHandler)
	router.POST("/login", authHandler.LoginHandler)
	router.POST("/logout", requireLogin, authHandler.LogoutHandler)
	router.GET("/me", requireLogin, authHandler.MeHandler)

	items := router.Group("/items")
	{
		items.POST("", catalogHandler.CreateItemHandler)
		items.GET("", catalogHandler.ListItemsHandler)
		items.GET("/:item_id", catalogHandler.GetItemHandler)
		items.PUT("/:item_id", catalogHandler.UpdateItemHandler)
		items.DELETE("/:item_id", catalogHandler.DeleteItemHandler)

		items.POST("/:item_id/bids", requireLogin, biddingHandler.PlaceBidHandler)
		items.GET("/:item_id/bids", biddingHandler.GetBidsByItemHandler)
		items.GET("/:item_id/winning", biddingHandler.GetWinningBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/items", biddingHandler.GetItemsByUserHandler)
	}

	return router
}
