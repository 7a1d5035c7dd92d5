package helpers_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/helpers"
)

func TestTicketQRDataRoundTrip(t *testing.T) {
	ticketID := uuid.New()
	orderID := uuid.New()
	userID := uuid.New()
	secret := "test-secret"

	qrData := helpers.TicketQRData(ticketID, orderID, userID, secret)

	parsed, err := helpers.ExtractTicketIDFromQRData(qrData)
	require.NoError(t, err)
	assert.Equal(t, ticketID, parsed)

	assert.True(t, helpers.ValidateTicketQRSignature(ticketID, orderID, userID, qrData, secret))
}

func TestValidateTicketQRSignature_WrongSecret(t *testing.T) {
	ticketID := uuid.New()
	orderID := uuid.New()
	userID := uuid.New()

	qrData := helpers.TicketQRData(ticketID, orderID, userID, "test-secret")

	assert.False(t, helpers.ValidateTicketQRSignature(ticketID, orderID, userID, qrData, "other-secret"))
}

func TestValidateTicketQRSignature_TamperedOrder(t *testing.T) {
	ticketID := uuid.New()
	orderID := uuid.New()
	userID := uuid.New()
	secret := "test-secret"

	qrData := helpers.TicketQRData(ticketID, orderID, userID, secret)

	assert.False(t, helpers.ValidateTicketQRSignature(ticketID, uuid.New(), userID, qrData, secret))
}

func TestExtractTicketIDFromQRData_Malformed(t *testing.T) {
	_, err := helpers.ExtractTicketIDFromQRData("not a qr payload")
	assert.Error(t, err)

	_, err = helpers.ExtractTicketIDFromQRData("ticket:not-a-uuid;order:x;signature:y")
	assert.Error(t, err)
}
