package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/gearhub-backend/internal/pricing"
)

func newTestCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()
	calc, err := pricing.NewCalculator(pricing.DefaultConfig())
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	return calc
}

func TestPricingQuoteAppliesCouponAndTax(t *testing.T) {
	body := `{
		"items": [{"product_ref": "trail-pack-40", "unit_price": 1500, "quantity": 2}],
		"coupon": {"code": "SAVE10", "type": "percent", "value": 10}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()

	PricingQuote(newTestCalculator(t), testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data pricing.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := pricing.Result{
		Subtotal:      3000,
		DiscountTotal: 300,
		ShippingTotal: 500,
		TaxTotal:      240,
		GrandTotal:    3440,
		CouponCode:    "SAVE10",
		CouponApplied: true,
	}
	if payload.Data != want {
		t.Fatalf("unexpected quote %+v", payload.Data)
	}
}

func TestPricingQuoteExpressShipping(t *testing.T) {
	body := `{"items": [{"unit_price": 9000, "quantity": 1}], "shipping_method": "express"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()

	PricingQuote(newTestCalculator(t), testLogger()).ServeHTTP(resp, req)

	var payload struct {
		Data pricing.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.ShippingTotal != pricing.DefaultExpressShippingFee {
		t.Fatalf("expected express fee, got %d", payload.Data.ShippingTotal)
	}
}

func TestPricingQuoteRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"zero quantity":   `{"items": [{"unit_price": 100, "quantity": 0}]}`,
		"coupon kind":     `{"items": [], "coupon": {"code": "X10", "type": "bogo", "value": 1}}`,
		"percent too big": `{"items": [], "coupon": {"code": "X10", "type": "percent", "value": 150}}`,
		"shipping method": `{"items": [], "shipping_method": "drone"}`,
		"unknown field":   `{"items": [], "tax": 0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(body))
			resp := httptest.NewRecorder()
			PricingQuote(newTestCalculator(t), testLogger()).ServeHTTP(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}
