package server

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/config"
	"github.com/nandaardn/eventix/internal/handlers"
	"github.com/nandaardn/eventix/internal/middleware"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	redisClient, err := config.InitRedis()
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %v", err)
	}
	if redisClient == nil {
		log.Println("REDIS_HOST not set, sweep lock disabled")
	}

	xenditCfg, err := config.LoadXenditConfig()
	if err != nil {
		return fmt.Errorf("failed to load xendit config: %v", err)
	}
	xenditClient, err := config.InitXenditClient(xenditCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize xendit client: %v", err)
	}

	startSweeper(db, redisClient)

	r := gin.Default()

	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.RedisMiddleware(redisClient))
	r.Use(middleware.XenditMiddleware(xenditClient))

	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

// startSweeper runs the expiration sweeper on its own goroutine for the
// lifetime of the process. The HTTP sweep endpoints stay available for an
// external scheduler; the lock keeps the two from overlapping.
func startSweeper(db *gorm.DB, redisClient *redis.Client) {
	store := storage.NewGormStore(db)
	inventory := services.NewInventoryService(store)
	coupons := services.NewCouponService(store)

	var lock *services.SweepLock
	if redisClient != nil {
		lock = services.NewSweepLock(redisClient)
	}

	sweeper := services.NewExpirationService(store, inventory, coupons, lock)
	go sweeper.Run(context.Background())
}

func setupRoutes(r *gin.Engine) {
	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		public.GET("/tiers/:id", handlers.GetTier)
		public.GET("/categories", handlers.ListCategories)

		// Payment collaborator callback; verified by callback token.
		public.POST("/payments/xendit/webhook", handlers.XenditWebhook)

		// Scheduler entry points, one per expiration track.
		internal := public.Group("/internal/sweeps")
		{
			internal.POST("/cash-holds", handlers.SweepCashHolds)
			internal.POST("/abandoned-checkouts", handlers.SweepAbandonedCheckouts)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile)

		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
		}

		tierProtected := protected.Group("/tiers")
		{
			tierProtected.POST("", handlers.CreateTier)
			tierProtected.PUT("/:id", handlers.UpdateTier)
			tierProtected.DELETE("/:id", handlers.DeleteTier)
		}

		couponProtected := protected.Group("/coupons")
		{
			couponProtected.POST("", handlers.CreateCoupon)
			couponProtected.GET("", handlers.ListCoupons)
			couponProtected.GET("/:id", handlers.GetCoupon)
			couponProtected.PUT("/:id", handlers.UpdateCoupon)
			couponProtected.POST("/:id/deactivate", handlers.DeactivateCoupon)
			couponProtected.DELETE("/:id", handlers.DeleteCoupon)
		}

		orderProtected := protected.Group("/orders")
		{
			orderProtected.POST("", handlers.CreateOrder)
			orderProtected.GET("/:id", handlers.GetOrder)
			orderProtected.POST("/:id/settle-cash", handlers.SettleCashOrder)
		}

		protected.POST("/payments/link", handlers.CreatePaymentLink)

		ticketProtected := protected.Group("/tickets")
		{
			ticketProtected.GET("/:id/qr", handlers.GenerateTicketQR)
			ticketProtected.POST("/validate", handlers.ValidateTicket)
		}

		protected.POST("/categories", handlers.CreateCategory)
	}
}
