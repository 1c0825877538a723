package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errInvalidAmount    = errors.New("payment intent amount must be positive")
)

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	api         *stripe.Client
	environment string
	logg        *logger.Logger
}

// PaymentIntent is the subset of a Stripe PaymentIntent the storefront keeps.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:         api,
		environment: env,
		logg:        logg,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreatePaymentIntent opens a card PaymentIntent for an order total.
func (c *Client) CreatePaymentIntent(ctx context.Context, params PaymentIntentCreateParams) (*PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params.Amount <= 0 {
		return nil, errInvalidAmount
	}
	req := params.toStripeParams(ensureIdempotencyKey("payment_intent", params.IdempotencyKey))
	c.log(ctx, "request", "create_payment_intent", map[string]any{
		"order_number": params.OrderNumber,
		"amount":       params.Amount,
		"currency":     params.currency(),
	})

	intent, err := c.api.V1PaymentIntents.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", "create_payment_intent", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	c.log(ctx, "response", "create_payment_intent", map[string]any{
		"payment_intent_id": intent.ID,
		"status":            string(intent.Status),
	})
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// PaymentIntentCreateParams groups the order data sent to Stripe.
type PaymentIntentCreateParams struct {
	Amount         int64
	Currency       string
	OrderID        string
	OrderNumber    string
	ReceiptEmail   string
	IdempotencyKey string
}

func (p PaymentIntentCreateParams) currency() string {
	code := strings.ToLower(strings.TrimSpace(p.Currency))
	if code == "" {
		return "usd"
	}
	return code
}

func (p PaymentIntentCreateParams) toStripeParams(idempotencyKey string) *stripe.PaymentIntentCreateParams {
	req := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.currency()),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if email := strings.TrimSpace(p.ReceiptEmail); email != "" {
		req.ReceiptEmail = stripe.String(email)
	}
	if p.OrderNumber != "" {
		req.AddMetadata("order_number", p.OrderNumber)
	}
	if p.OrderID != "" {
		req.AddMetadata("order_id", p.OrderID)
	}
	req.SetIdempotencyKey(idempotencyKey)
	return req
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logg == nil {
		return
	}
	all := map[string]any{
		"provider":    "stripe",
		"phase":       phase,
		"operation":   operation,
		"environment": c.environment,
	}
	for k, v := range fields {
		all[k] = v
	}
	logCtx := c.logg.WithFields(ctx, all)
	if phase == "error" {
		c.logg.Warn(logCtx, "stripe call failed")
		return
	}
	c.logg.Debug(logCtx, "stripe call")
}

func ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return fmt.Sprintf("gh-%s-%s", prefix, uuid.NewString())
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
