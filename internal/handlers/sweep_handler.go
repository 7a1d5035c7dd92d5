package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/helpers"
	"github.com/nandaardn/eventix/internal/middleware"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

func expirationService(c *gin.Context, gormDB *gorm.DB) *services.ExpirationService {
	store := storage.NewGormStore(gormDB)
	inventory := services.NewInventoryService(store)
	coupons := services.NewCouponService(store)

	var lock *services.SweepLock
	if client := middleware.GetRedisClient(c); client != nil {
		lock = services.NewSweepLock(client)
	}
	return services.NewExpirationService(store, inventory, coupons, lock)
}

// SweepCashHolds is the scheduler entry point for the cash-hold track.
// Safe to invoke repeatedly: already-cancelled orders are never reselected.
func SweepCashHolds(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	report, err := expirationService(c, gormDB).SweepCashHolds(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Cash-hold sweep failed.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"expired_count":    report.ExpiredOrders,
		"tickets_released": report.TicketsReleased,
	})
}

// SweepAbandonedCheckouts is the scheduler entry point for the
// abandoned-checkout track.
func SweepAbandonedCheckouts(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	report, err := expirationService(c, gormDB).SweepAbandonedCheckouts(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Abandoned-checkout sweep failed.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"expired_count":           report.ExpiredOrders,
		"tickets_released":        report.TicketsReleased,
		"discount_codes_released": report.CouponUsesReleased,
	})
}
