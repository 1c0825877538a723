package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/middleware"
	ordersvc "github.com/angelmondragon/gearhub-backend/internal/orders"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type stubOrdersService struct {
	checkoutInput ordersvc.CheckoutInput
	lookupNumber  string
	lookupEmail   string
	listInput     ordersvc.ListInput
	updateInput   ordersvc.UpdateStatusInput
	err           error
}

func (s *stubOrdersService) CreateFromCart(ctx context.Context, input ordersvc.CheckoutInput) (*ordersvc.CheckoutResult, error) {
	s.checkoutInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.CheckoutResult{Order: &ordersvc.View{ID: uuid.New(), OrderNumber: "GH2610190001"}}, nil
}

func (s *stubOrdersService) GetByNumber(ctx context.Context, number, email string) (*ordersvc.View, error) {
	s.lookupNumber, s.lookupEmail = number, email
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.View{OrderNumber: number}, nil
}

func (s *stubOrdersService) List(ctx context.Context, input ordersvc.ListInput) (*ordersvc.ListResult, error) {
	s.listInput = input
	return &ordersvc.ListResult{}, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*ordersvc.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.View{ID: id}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input ordersvc.UpdateStatusInput) (*ordersvc.View, error) {
	s.updateInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.View{ID: input.OrderID, Status: enums.OrderStatus(input.Status)}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

const checkoutBody = `{
	"email": "buyer@example.com",
	"payment_method": "cod",
	"shipping_method": "express",
	"shipping_address": {
		"full_name": "Jo Buyer",
		"line1": "1 Main St",
		"city": "Austin",
		"state": "TX",
		"postal_code": "78701"
	}
}`

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	req = req.WithContext(middleware.WithCartToken(req.Context(), "tok-1"))
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.checkoutInput.Owner.SessionToken != "tok-1" {
		t.Fatalf("expected cart token to flow through, got %+v", svc.checkoutInput.Owner)
	}
	if svc.checkoutInput.PaymentProvider != enums.PaymentProviderCOD {
		t.Fatalf("unexpected provider %s", svc.checkoutInput.PaymentProvider)
	}
	if svc.checkoutInput.ShippingMethod != enums.ShippingMethodExpress {
		t.Fatalf("unexpected shipping method %s", svc.checkoutInput.ShippingMethod)
	}

	var payload struct {
		Data struct {
			Order struct {
				OrderNumber string `json:"order_number"`
			} `json:"order"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Order.OrderNumber != "GH2610190001" {
		t.Fatalf("unexpected order number %q", payload.Data.Order.OrderNumber)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &stubOrdersService{}
	body := strings.Replace(checkoutBody, `"cod"`, `"crypto"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithCartToken(req.Context(), "tok-1"))
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.checkoutInput.Email != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutRequiresShippingAddress(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"email":"buyer@example.com","payment_method":"cod","shipping_address":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithCartToken(req.Context(), "tok-1"))
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutPropagatesEmptyCart(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	req = req.WithContext(middleware.WithCartToken(req.Context(), "tok-1"))
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestLookupPassesNumberAndEmail(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/GH2610190001?email=buyer@example.com", nil)
	req = withParam(req, "orderNumber", "GH2610190001")
	rec := httptest.NewRecorder()

	Lookup(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lookupNumber != "GH2610190001" || svc.lookupEmail != "buyer@example.com" {
		t.Fatalf("unexpected lookup args %q %q", svc.lookupNumber, svc.lookupEmail)
	}
}

func TestLookupNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/GH0", nil), "orderNumber", "GH0")
	rec := httptest.NewRecorder()

	Lookup(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAdminListParsesFilters(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?page=2&status=DISPATCHED&q=GH26", nil)
	rec := httptest.NewRecorder()

	AdminList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listInput.Page.Page != 2 || svc.listInput.Page.PerPage != ordersvc.AdminPerPage {
		t.Fatalf("unexpected page %+v", svc.listInput.Page)
	}
	if svc.listInput.Status != "DISPATCHED" || svc.listInput.Query != "GH26" {
		t.Fatalf("unexpected filters %+v", svc.listInput)
	}
}

func TestAdminDetailRejectsBadID(t *testing.T) {
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/admin/orders/nope", nil), "id", "nope")
	rec := httptest.NewRecorder()

	AdminDetail(&stubOrdersService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminUpdateStatusRequiresActor(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"DISPATCHED"}`))
	req = withParam(req, "id", orderID.String())
	rec := httptest.NewRecorder()

	AdminUpdateStatus(&stubOrdersService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminUpdateStatusForwardsActor(t *testing.T) {
	orderID := uuid.New()
	actorID := uuid.New()
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"DISPATCHED"}`))
	req = withParam(req, "id", orderID.String())
	req = req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
	rec := httptest.NewRecorder()

	AdminUpdateStatus(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updateInput.ActorUserID != actorID || svc.updateInput.OrderID != orderID || svc.updateInput.Status != "DISPATCHED" {
		t.Fatalf("unexpected update input %+v", svc.updateInput)
	}
}

func TestCheckoutNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	rec := httptest.NewRecorder()

	Checkout(nil, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
