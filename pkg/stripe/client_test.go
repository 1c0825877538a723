package stripe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
)

func TestNewClientValidatesKeys(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{}, nil)
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_live_abc", Env: "test"}, nil)
	require.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: "staging"}, nil)
	require.ErrorIs(t, err, errInvalidStripeEnv)

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: " TEST "}, nil)
	require.NoError(t, err)
	require.Equal(t, "test", client.Environment())
}

func TestPaymentIntentParams(t *testing.T) {
	params := PaymentIntentCreateParams{
		Amount:       5940,
		Currency:     "USD",
		OrderID:      "3b7f1c9e-0000-0000-0000-000000000001",
		OrderNumber:  "GH2501010001",
		ReceiptEmail: " buyer@example.com ",
	}
	req := params.toStripeParams("gh-order-GH2501010001")

	require.Equal(t, int64(5940), *req.Amount)
	require.Equal(t, "usd", *req.Currency)
	require.Equal(t, "buyer@example.com", *req.ReceiptEmail)
	require.Equal(t, "GH2501010001", req.Metadata["order_number"])
	require.Equal(t, "gh-order-GH2501010001", *req.IdempotencyKey)
	require.True(t, *req.AutomaticPaymentMethods.Enabled)
}

func TestCreatePaymentIntentRejectsZeroAmount(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	require.NoError(t, err)
	_, err = client.CreatePaymentIntent(context.Background(), PaymentIntentCreateParams{Amount: 0})
	require.ErrorIs(t, err, errInvalidAmount)
}

func TestEnsureIdempotencyKey(t *testing.T) {
	require.Equal(t, "provided", ensureIdempotencyKey("payment_intent", "provided"))
	require.True(t, strings.HasPrefix(ensureIdempotencyKey("payment_intent", " "), "gh-payment_intent-"))
}
