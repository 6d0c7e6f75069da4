package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("paid")
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, status)

	_, err = ParseOrderStatus("refunded")
	require.Error(t, err)
}

func TestDeliveryMethodValidity(t *testing.T) {
	require.True(t, DeliveryMethodPickup.IsValid())
	require.True(t, DeliveryMethodDelivery.IsValid())
	require.False(t, DeliveryMethod("courier").IsValid())
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("online")
	require.NoError(t, err)
	require.Equal(t, PaymentMethodOnline, method)

	_, err = ParsePaymentMethod("crypto")
	require.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("completed")
	require.NoError(t, err)
	require.Equal(t, PaymentStatusCompleted, status)

	_, err = ParsePaymentStatus("charged_back")
	require.Error(t, err)
}
