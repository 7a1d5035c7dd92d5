package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/helpers"
	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/services"
)

const defaultPlatformFee = 5000

type CouponRequest struct {
	Code           string      `json:"code" binding:"required"`
	EventID        uuid.UUID   `json:"event_id" binding:"required"`
	Discount       int         `json:"discount" binding:"required,min=1,max=100"`
	MaxUses        *int        `json:"max_uses"`
	MaxUsesPerUser *int        `json:"max_uses_per_user"`
	ValidFrom      *time.Time  `json:"valid_from"`
	ValidUntil     *time.Time  `json:"valid_until"`
	MinPurchase    *int        `json:"min_purchase"`
	TierIDs        []uuid.UUID `json:"tier_ids"`
}

func platformFee() int {
	if raw := os.Getenv("PLATFORM_FEE"); raw != "" {
		if fee, err := helpers.StringToInt(raw); err == nil {
			return fee
		}
	}
	return defaultPlatformFee
}

func CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", req.EventID, userID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to modify it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error verifying event ownership.")
		return
	}

	coupon := models.Coupon{
		ID:             uuid.New(),
		Code:           models.NormalizeCouponCode(req.Code),
		EventID:        req.EventID,
		Discount:       req.Discount,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		IsActive:       true,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		MinPurchase:    req.MinPurchase,
	}

	for _, tierID := range req.TierIDs {
		var tier models.Tier
		if err := gormDB.Where("id = ? AND event_id = ?", tierID, req.EventID).First(&tier).Error; err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Tier does not belong to this event.")
			return
		}
		coupon.Tiers = append(coupon.Tiers, tier)
	}

	if err := gormDB.Create(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create coupon.")
		return
	}

	// Warn (without blocking) when the discount pushes a tier below the
	// platform fee.
	var eventTiers []models.Tier
	if err := gormDB.Where("event_id = ?", req.EventID).Find(&eventTiers).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error computing fee warnings.")
		return
	}
	warnings := services.FeeWarnings(&coupon, eventTiers, platformFee())

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Coupon created successfully.",
		"coupon_id": coupon.ID,
		"warnings":  warnings,
	})
}

func ListCoupons(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	query := gormDB.Model(&models.Coupon{})
	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}

	var coupons []models.Coupon
	if err := query.Preload("Tiers").Order("created_at DESC").Find(&coupons).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupons.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func GetCoupon(c *gin.Context) {
	couponID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var coupon models.Coupon
	if err := gormDB.Preload("Tiers").Where("id = ?", couponID).First(&coupon).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving coupon.")
		return
	}

	c.JSON(http.StatusOK, coupon)
}

func UpdateCoupon(c *gin.Context) {
	couponID := c.Param("id")

	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var coupon models.Coupon
	if err := gormDB.Where("id = ?", couponID).First(&coupon).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding coupon.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", coupon.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to modify this coupon.")
		return
	}

	coupon.Code = models.NormalizeCouponCode(req.Code)
	coupon.Discount = req.Discount
	coupon.MaxUses = req.MaxUses
	coupon.MaxUsesPerUser = req.MaxUsesPerUser
	coupon.ValidFrom = req.ValidFrom
	coupon.ValidUntil = req.ValidUntil
	coupon.MinPurchase = req.MinPurchase

	// used_count stays out of reach: only checkout and expiration move it.
	err := gormDB.Model(&coupon).
		Select("code", "discount", "max_uses", "max_uses_per_user", "valid_from", "valid_until", "min_purchase").
		Updates(&coupon).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update coupon.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon updated successfully.",
		"coupon":  coupon,
	})
}

func DeactivateCoupon(c *gin.Context) {
	couponID := c.Param("id")

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var coupon models.Coupon
	if err := gormDB.Where("id = ?", couponID).First(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", coupon.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to modify this coupon.")
		return
	}

	if err := gormDB.Model(&coupon).Update("is_active", false).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate coupon.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deactivated successfully.",
	})
}

func DeleteCoupon(c *gin.Context) {
	couponID := c.Param("id")

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var coupon models.Coupon
	if err := gormDB.Where("id = ?", couponID).First(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", coupon.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to delete this coupon.")
		return
	}

	if coupon.UsedCount > 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Coupon has live usages and cannot be deleted. Deactivate it instead.")
		return
	}

	if err := gormDB.Delete(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete coupon.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully.",
	})
}
