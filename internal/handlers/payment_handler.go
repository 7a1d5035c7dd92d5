package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xendit/xendit-go/v6/invoice"
	"gorm.io/gorm"

	"github.com/nandaardn/eventix/internal/helpers"
	"github.com/nandaardn/eventix/internal/middleware"
	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/storage"
)

type PaymentLinkRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// CreatePaymentLink creates a Xendit invoice for a PENDING order. The
// invoice due time matches the checkout window, so the gateway and the
// sweeper give up on the order at roughly the same moment.
func CreatePaymentLink(c *gin.Context) {
	var req PaymentLinkRequest
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

	var order models.Order
	if err := gormDB.First(&order, "id = ?", req.OrderID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
		return
	}

	if order.UserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to pay for this order.")
		return
	}

	if order.Status != models.OrderPending {
		helpers.RespondWithError(c, http.StatusBadRequest, "Order is not awaiting online payment.")
		return
	}

	var user models.User
	if err := gormDB.First(&user, "id = ?", order.UserID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	xenditClient := middleware.GetXenditClient(c)
	if xenditClient == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	createReq := *invoice.NewCreateInvoiceRequest(order.ID.String(), float64(order.Total))
	createReq.SetDescription("Eventix order " + order.ID.String())
	createReq.SetPayerEmail(user.Email)

	inv, _, xerr := xenditClient.InvoiceApi.CreateInvoice(c.Request.Context()).
		CreateInvoiceRequest(createReq).
		Execute()
	if xerr != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Failed to create payment invoice.")
		return
	}

	payment := models.Payment{
		ID:            uuid.New(),
		Amount:        order.Total,
		Method:        "xendit_invoice",
		Status:        "pending",
		TransactionID: inv.GetId(),
		UserID:        order.UserID,
		OrderID:       order.ID,
	}
	if err := gormDB.Create(&payment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":  payment.ID,
		"invoice_url": inv.GetInvoiceUrl(),
	})
}

type xenditInvoiceCallback struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// XenditWebhook is the payment collaborator's callback. A PAID invoice
// moves the order (and its tickets) to PAID, which takes it out of the
// sweeper's selection from the next pass on.
func XenditWebhook(c *gin.Context) {
	callbackToken := os.Getenv("XENDIT_CALLBACK_TOKEN")
	if callbackToken == "" || c.GetHeader("x-callback-token") != callbackToken {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid callback token.")
		return
	}

	var callback xenditInvoiceCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid callback payload.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	orderID, err := uuid.Parse(callback.ExternalID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid external ID in callback.")
		return
	}

	switch callback.Status {
	case "PAID":
		store := storage.NewGormStore(gormDB)
		settled, err := store.MarkOrderPaid(c.Request.Context(), orderID)
		if err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to settle order.")
			return
		}
		if !settled {
			// The order expired before the payment landed. Acknowledge the
			// callback; reconciliation with the gateway is manual.
			c.JSON(http.StatusOK, gin.H{"message": "Order no longer pending, payment recorded for reconciliation."})
		} else {
			c.JSON(http.StatusOK, gin.H{"message": "Order settled."})
		}
		gormDB.Model(&models.Payment{}).
			Where("transaction_id = ?", callback.ID).
			Update("status", "paid")
	case "EXPIRED":
		gormDB.Model(&models.Payment{}).
			Where("transaction_id = ?", callback.ID).
			Update("status", "expired")
		c.JSON(http.StatusOK, gin.H{"message": "Invoice expiry recorded."})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Callback ignored."})
	}
}
