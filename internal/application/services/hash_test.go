package services_test

import (
	"testing"

	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRequestHash(t *testing.T) {
	description := "order shipment"
	cmd := services.ChargeCommand{
		CustomerID:         "cust-1",
		Amount:             5000,
		Currency:           "USD",
		PaymentMethodToken: "tok-1",
		Description:        &description,
	}

	t.Run("is deterministic", func(t *testing.T) {
		first, err := services.ComputeRequestHash(cmd)
		require.NoError(t, err)

		second, err := services.ComputeRequestHash(cmd)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("ignores field order", func(t *testing.T) {
		fromStruct, err := services.ComputeRequestHash(cmd)
		require.NoError(t, err)

		// Maps marshal with sorted keys, so a logically equal payload in a
		// different shape must hash identically.
		fromMap, err := services.ComputeRequestHash(map[string]any{
			"paymentMethodToken": "tok-1",
			"description":        "order shipment",
			"currency":           "USD",
			"amount":             5000,
			"customerId":         "cust-1",
		})
		require.NoError(t, err)

		assert.Equal(t, fromStruct, fromMap)
	})

	t.Run("differs for different payloads", func(t *testing.T) {
		base, err := services.ComputeRequestHash(cmd)
		require.NoError(t, err)

		changed := cmd
		changed.Amount = 5001
		other, err := services.ComputeRequestHash(changed)
		require.NoError(t, err)

		assert.NotEqual(t, base, other)
	})

	t.Run("differs when optional fields are omitted", func(t *testing.T) {
		withDescription, err := services.ComputeRequestHash(cmd)
		require.NoError(t, err)

		bare := cmd
		bare.Description = nil
		withoutDescription, err := services.ComputeRequestHash(bare)
		require.NoError(t, err)

		assert.NotEqual(t, withDescription, withoutDescription)
	})
}

func TestCanonicalJSON(t *testing.T) {
	canonical, err := services.CanonicalJSON(map[string]any{
		"b": 2,
		"a": 1,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1,"b":2}`, string(canonical))
}
