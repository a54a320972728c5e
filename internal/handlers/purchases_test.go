package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chipsms/internal/services"
	"chipsms/internal/store"
)

func TestCreatePurchaseRequiresAuth(t *testing.T) {
	router := newTestRouter(newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"service_id":"gmail","number":"+5511999123456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreatePurchaseInsufficientFunds(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.createPurchaseFn = func(_ context.Context, _ services.PurchaseRequest) (store.Purchase, error) {
		return store.Purchase{}, services.ErrInsufficientFunds
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"service_id":"whatsapp","number":"+5511999123456"}`))
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient funds") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreatePurchaseUnknownService(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.createPurchaseFn = func(_ context.Context, _ services.PurchaseRequest) (store.Purchase, error) {
		return store.Purchase{}, services.ErrServiceNotFound
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"service_id":"nope","number":"+5511999123456"}`))
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreatePurchaseInactiveService(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.createPurchaseFn = func(_ context.Context, _ services.PurchaseRequest) (store.Purchase, error) {
		return store.Purchase{}, services.ErrServiceInactive
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"service_id":"gmail","number":"+5511999123456"}`))
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePurchaseEmptyPayload(t *testing.T) {
	router := newTestRouter(newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePurchaseReturnsPendingEntry(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.createPurchaseFn = func(_ context.Context, req services.PurchaseRequest) (store.Purchase, error) {
		if req.UserID != "user-1" || req.ServiceID != "gmail" {
			t.Fatalf("unexpected request: %#v", req)
		}
		return store.Purchase{
			ID:          "p-1",
			UserID:      "user-1",
			ServiceName: "Gmail",
			Price:       130,
			Number:      "+5511999123456",
			Demo:        true,
		}, nil
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"service_id":"gmail","number":"+5511999123456"}`))
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", body["status"])
	}
	if body["price"] != "1.30" {
		t.Fatalf("expected formatted price, got %v", body["price"])
	}
	if body["sms_code"] != nil {
		t.Fatalf("expected null sms_code, got %v", body["sms_code"])
	}
}

func TestGetPurchaseNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.getPurchaseFn = func(_ context.Context, _, _ string) (store.Purchase, error) {
		return store.Purchase{}, services.ErrPurchaseNotFound
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/purchases/p-1", nil)
	req.Header.Set("Authorization", bearerToken("intruder"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetPurchaseFulfilled(t *testing.T) {
	code := "123456"
	deps := newTestDeps()
	deps.purchaseSvc.getPurchaseFn = func(_ context.Context, userID, purchaseID string) (store.Purchase, error) {
		return store.Purchase{ID: purchaseID, UserID: userID, SmsCode: &code, Used: true, Price: 130}, nil
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/purchases/p-1", nil)
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "fulfilled" || body["sms_code"] != code {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestListPurchases(t *testing.T) {
	deps := newTestDeps()
	deps.purchaseSvc.listPurchasesFn = func(_ context.Context, userID string) ([]store.Purchase, error) {
		return []store.Purchase{
			{ID: "p-2", UserID: userID, Price: 250},
			{ID: "p-1", UserID: userID, Price: 130},
		}, nil
	}
	router := newTestRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	req.Header.Set("Authorization", bearerToken("user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body) != 2 || body[0]["id"] != "p-2" {
		t.Fatalf("unexpected body: %v", body)
	}
}
