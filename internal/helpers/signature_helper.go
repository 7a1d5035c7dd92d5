package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TicketQRData builds the signed payload embedded in a ticket's QR code.
func TicketQRData(ticketID, orderID, userID uuid.UUID, secretKey string) string {
	signature := TicketSignature(ticketID, orderID, userID, secretKey)
	return fmt.Sprintf("ticket:%s;order:%s;signature:%s",
		ticketID.String(),
		orderID.String(),
		signature,
	)
}

func TicketSignature(ticketID, orderID, userID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s", ticketID.String(), orderID.String(), userID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ExtractTicketIDFromQRData parses the ticket id out of a scanned payload.
func ExtractTicketIDFromQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "ticket:") || !strings.HasPrefix(parts[2], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "ticket:"))
}

// ValidateTicketQRSignature recomputes the signature over the scanned
// payload and compares in constant time.
func ValidateTicketQRSignature(ticketID, orderID, userID uuid.UUID, qrData, secretKey string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "signature:") {
		return false
	}
	signature := strings.TrimPrefix(parts[2], "signature:")
	expected := TicketSignature(ticketID, orderID, userID, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}
