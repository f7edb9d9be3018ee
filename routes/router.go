package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/controllers"
	"github.com/ktwom22/plater8te/middleware"
	"github.com/ktwom22/plater8te/services"
	"github.com/ktwom22/plater8te/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	geocoder := services.NewGeocoder(cfg)
	nearby := services.NewNearbyProvider(db, cfg)
	feed := services.NewFeedService(db)

	authController := controllers.NewAuthController(db)
	plateController := controllers.NewPlateController(db, feed, geocoder)
	restaurantController := controllers.NewRestaurantController(db, geocoder, nearby)
	statsController := controllers.NewStatsController(db)

	// Core surface: viewer identity is optional on reads, required on writes.
	r.GET("/", middleware.AuthOptional(), plateController.Feed)
	r.GET("/plates", middleware.AuthRequired(), plateController.MyPlates)
	r.GET("/favorites", middleware.AuthRequired(), plateController.Favorites)
	r.GET("/create_plate", middleware.AuthRequired(), plateController.CreatePlateForm)
	r.POST("/create_plate", middleware.AuthRequired(), middleware.RateLimitMiddleware(), plateController.CreatePlate)
	r.POST("/plates/:id/like", middleware.AuthRequired(), plateController.Like)
	r.POST("/plates/:id/favorite", middleware.AuthRequired(), plateController.Favorite)
	r.POST("/plates/:id/comment", middleware.AuthRequired(), middleware.RateLimitMiddleware(), plateController.Comment)
	r.GET("/rate_plate/:id", middleware.AuthRequired(), plateController.GetRating)
	r.POST("/rate_plate/:id", middleware.AuthRequired(), plateController.RatePlate)
	r.GET("/nearby_restaurants", restaurantController.Nearby)
	r.POST("/register", middleware.RateLimitMiddleware(), authController.Register)
	r.POST("/login", middleware.RateLimitMiddleware(), authController.Login)
	r.GET("/logout", middleware.AuthRequired(), authController.Logout)
	r.POST("/add_restaurant", middleware.AuthRequired(), middleware.RateLimitMiddleware(), restaurantController.AddRestaurant)
	r.GET("/geocode_reverse", restaurantController.ReverseGeocode)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public stats endpoint
	api.GET("/stats", statsController.Site)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
