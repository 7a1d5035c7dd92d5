package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/helpers"
	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

type CreateOrderRequest struct {
	Selections []services.TierSelection `json:"selections" binding:"required"`
	CouponCode string                   `json:"coupon_code"`
	// Cash marks an at-the-door sale: the order holds its tickets in
	// PENDING_PAYMENT until settled in person or swept.
	Cash bool `json:"cash"`
}

func checkoutService(gormDB *gorm.DB) *services.CheckoutService {
	store := storage.NewGormStore(gormDB)
	inventory := services.NewInventoryService(store)
	coupons := services.NewCouponService(store)
	return services.NewCheckoutService(store, inventory, coupons)
}

func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
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

	order, err := checkoutService(gormDB).CreateOrder(c.Request.Context(), userID.(uuid.UUID), req.Selections, req.CouponCode, req.Cash)
	if err != nil {
		if services.IsValidationError(err) {
			helpers.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create order.")
		return
	}

	ticketIDs := make([]uuid.UUID, 0, len(order.Tickets))
	for _, ticket := range order.Tickets {
		ticketIDs = append(ticketIDs, ticket.ID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":   order.ID,
		"status":     order.Status,
		"total":      order.Total,
		"ticket_ids": ticketIDs,
	})
}

func GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var order models.Order
	if err := gormDB.Preload("Tickets").First(&order, "id = ?", orderID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}

	if order.UserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this order.")
		return
	}

	c.JSON(http.StatusOK, order)
}

// SettleCashOrder marks a PENDING_PAYMENT order as paid once the buyer has
// settled at the door. Organizer-side counterpart of the payment webhook.
func SettleCashOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var order models.Order
	if err := gormDB.First(&order, "id = ?", orderID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}

	if order.Status != models.OrderPendingPayment {
		helpers.RespondWithError(c, http.StatusBadRequest, "Order is not awaiting cash settlement.")
		return
	}

	// Only the organizer of the event being sold may settle cash orders.
	var ticket models.Ticket
	if err := gormDB.Preload("Tier").First(&ticket, "order_id = ?", orderID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading order tickets.")
		return
	}
	var event models.Event
	if err := gormDB.Where("id = ? AND user_id = ?", ticket.Tier.EventID, userID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to settle this order.")
		return
	}

	store := storage.NewGormStore(gormDB)
	settled, err := store.MarkOrderPaid(c.Request.Context(), orderID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to settle order.")
		return
	}
	if !settled {
		helpers.RespondWithError(c, http.StatusConflict, "Order is no longer pending. It may have expired.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Order settled successfully.",
		"order_id": orderID,
	})
}
