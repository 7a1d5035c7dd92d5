package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/helpers"
	"github.com/nandaardn/eventix/internal/models"
)

type TierRequest struct {
	Name     string    `json:"name" binding:"required"`
	Price    int       `json:"price" binding:"required"`
	Capacity int       `json:"capacity" binding:"required,min=1"`
	EventID  uuid.UUID `json:"event_id" binding:"required"`
}

func CreateTier(c *gin.Context) {
	var req TierRequest
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

	tier := models.Tier{
		ID:       uuid.New(),
		Name:     req.Name,
		Price:    req.Price,
		Capacity: req.Capacity,
		EventID:  req.EventID,
	}

	if err := gormDB.Create(&tier).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create tier.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tier created successfully.",
		"tier_id": tier.ID,
	})
}

func GetTier(c *gin.Context) {
	tierID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var tier models.Tier
	if err := gormDB.Where("id = ?", tierID).First(&tier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Tier not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving tier.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tier":      tier,
		"remaining": tier.Remaining(),
	})
}

func UpdateTier(c *gin.Context) {
	tierID := c.Param("id")
	var req TierRequest
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

	var tier models.Tier
	if err := gormDB.Where("id = ?", tierID).First(&tier).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Tier not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", tier.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to modify this tier.")
		return
	}

	if req.Capacity < tier.Sold {
		helpers.RespondWithError(c, http.StatusBadRequest, "Capacity cannot be lowered below the number of sold tickets.")
		return
	}

	tier.Name = req.Name
	tier.Price = req.Price
	tier.Capacity = req.Capacity

	// Sold is deliberately left alone: only the inventory service moves it.
	if err := gormDB.Model(&tier).Select("name", "price", "capacity").Updates(&tier).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update tier.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tier updated successfully.",
		"tier":    tier,
	})
}

func DeleteTier(c *gin.Context) {
	tierID := c.Param("id")

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

	var tier models.Tier
	if err := gormDB.Where("id = ?", tierID).First(&tier).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Tier not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", tier.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to delete this tier.")
		return
	}

	if tier.Sold > 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Tier has sold tickets and cannot be deleted.")
		return
	}

	if err := gormDB.Delete(&tier).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete tier.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tier deleted successfully.",
	})
}
