package testhelpers

import (
	"testing"

	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// DefaultChargeCommand returns a valid charge command for testing
func DefaultChargeCommand() services.ChargeCommand {
	description := "order shipment"
	return services.ChargeCommand{
		CustomerID:         "cust-" + uuid.New().String(),
		Amount:             5000,
		Currency:           "USD",
		PaymentMethodToken: "tok-" + uuid.New().String(),
		Description:        &description,
	}
}

// MustHash computes the request hash for cmd, failing the test on error.
func MustHash(t *testing.T, cmd services.ChargeCommand) string {
	t.Helper()
	hash, err := services.ComputeRequestHash(cmd)
	require.NoError(t, err)
	return hash
}
