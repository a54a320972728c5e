package handlers

import (
	"context"
	"net/http"
	"time"

	"chipsms/internal/auth"
	"chipsms/internal/config"
	"chipsms/internal/middleware"
	"chipsms/internal/services"
	"chipsms/internal/store"
	"chipsms/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn           func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, balance int64) error
	getByEmailFn       func(ctx context.Context, email string) (store.User, error)
	getByIDFn          func(ctx context.Context, userID string) (store.User, error)
	updateProfileFn    func(ctx context.Context, tx store.Execer, userID, username string, balance int64) (int64, error)
	deleteFn           func(ctx context.Context, tx store.Execer, userID string) (int64, error)
	listAllWithRolesFn func(ctx context.Context) ([]store.UserWithRoles, error)
}

func (s *stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, balance int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash, balance)
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s *stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s *stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, userID, username string, balance int64) (int64, error) {
	if s.updateProfileFn == nil {
		return 1, nil
	}
	return s.updateProfileFn(ctx, tx, userID, username, balance)
}

func (s *stubUserStore) Delete(ctx context.Context, tx store.Execer, userID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID)
}

func (s *stubUserStore) ListAllWithRoles(ctx context.Context) ([]store.UserWithRoles, error) {
	if s.listAllWithRolesFn == nil {
		return nil, nil
	}
	return s.listAllWithRolesFn(ctx)
}

type stubServiceStore struct {
	listActiveFn func(ctx context.Context) ([]store.Service, error)
	listAllFn    func(ctx context.Context) ([]store.Service, error)
	createFn     func(ctx context.Context, tx store.Execer, input store.ServiceInput) error
	updateFn     func(ctx context.Context, tx store.Execer, input store.ServiceInput, isActive bool) (int64, error)
	deleteFn     func(ctx context.Context, tx store.Execer, serviceID string) (int64, error)
}

func (s *stubServiceStore) ListActive(ctx context.Context) ([]store.Service, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx)
}

func (s *stubServiceStore) ListAll(ctx context.Context) ([]store.Service, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

func (s *stubServiceStore) Create(ctx context.Context, tx store.Execer, input store.ServiceInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s *stubServiceStore) Update(ctx context.Context, tx store.Execer, input store.ServiceInput, isActive bool) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, input, isActive)
}

func (s *stubServiceStore) Delete(ctx context.Context, tx store.Execer, serviceID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, serviceID)
}

type stubNumberStore struct {
	listAvailableFn func(ctx context.Context) ([]store.PhoneNumber, error)
}

func (s *stubNumberStore) ListAvailable(ctx context.Context) ([]store.PhoneNumber, error) {
	if s.listAvailableFn == nil {
		return nil, nil
	}
	return s.listAvailableFn(ctx)
}

type stubRoleStore struct {
	hasRoleFn     func(ctx context.Context, userID, role string) (bool, error)
	grantFn       func(ctx context.Context, tx store.Execer, userID, role string) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
}

func (s *stubRoleStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if s.hasRoleFn == nil {
		return false, nil
	}
	return s.hasRoleFn(ctx, userID, role)
}

func (s *stubRoleStore) Grant(ctx context.Context, tx store.Execer, userID, role string) error {
	if s.grantFn == nil {
		return nil
	}
	return s.grantFn(ctx, tx, userID, role)
}

func (s *stubRoleStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

type stubGatewayStore struct {
	createLocationFn      func(ctx context.Context, tx store.Execer, id, userID, name, apiKey string) error
	listLocationsByUserFn func(ctx context.Context, userID string) ([]store.Location, error)
	getLocationByAPIKeyFn func(ctx context.Context, apiKey string) (store.Location, error)
	deleteLocationFn      func(ctx context.Context, tx store.Execer, locationID, userID string) (int64, error)
	touchLocationFn       func(ctx context.Context, tx store.Execer, locationID string) error
	upsertModemFn         func(ctx context.Context, tx store.Getter, input store.ModemInput) (string, error)
	upsertChipFn          func(ctx context.Context, tx store.Execer, input store.ChipInput) error
	listModemsFn          func(ctx context.Context, locationID string) ([]store.Modem, error)
	listChipsFn           func(ctx context.Context, modemID string) ([]store.Chip, error)
	locationOwnedFn       func(ctx context.Context, locationID, userID string) (bool, error)
}

func (s *stubGatewayStore) CreateLocation(ctx context.Context, tx store.Execer, id, userID, name, apiKey string) error {
	if s.createLocationFn == nil {
		return nil
	}
	return s.createLocationFn(ctx, tx, id, userID, name, apiKey)
}

func (s *stubGatewayStore) ListLocationsByUser(ctx context.Context, userID string) ([]store.Location, error) {
	if s.listLocationsByUserFn == nil {
		return nil, nil
	}
	return s.listLocationsByUserFn(ctx, userID)
}

func (s *stubGatewayStore) GetLocationByAPIKey(ctx context.Context, apiKey string) (store.Location, error) {
	if s.getLocationByAPIKeyFn == nil {
		return store.Location{}, nil
	}
	return s.getLocationByAPIKeyFn(ctx, apiKey)
}

func (s *stubGatewayStore) DeleteLocation(ctx context.Context, tx store.Execer, locationID, userID string) (int64, error) {
	if s.deleteLocationFn == nil {
		return 1, nil
	}
	return s.deleteLocationFn(ctx, tx, locationID, userID)
}

func (s *stubGatewayStore) TouchLocation(ctx context.Context, tx store.Execer, locationID string) error {
	if s.touchLocationFn == nil {
		return nil
	}
	return s.touchLocationFn(ctx, tx, locationID)
}

func (s *stubGatewayStore) UpsertModem(ctx context.Context, tx store.Getter, input store.ModemInput) (string, error) {
	if s.upsertModemFn == nil {
		return "modem-1", nil
	}
	return s.upsertModemFn(ctx, tx, input)
}

func (s *stubGatewayStore) UpsertChip(ctx context.Context, tx store.Execer, input store.ChipInput) error {
	if s.upsertChipFn == nil {
		return nil
	}
	return s.upsertChipFn(ctx, tx, input)
}

func (s *stubGatewayStore) ListModems(ctx context.Context, locationID string) ([]store.Modem, error) {
	if s.listModemsFn == nil {
		return nil, nil
	}
	return s.listModemsFn(ctx, locationID)
}

func (s *stubGatewayStore) ListChips(ctx context.Context, modemID string) ([]store.Chip, error) {
	if s.listChipsFn == nil {
		return nil, nil
	}
	return s.listChipsFn(ctx, modemID)
}

func (s *stubGatewayStore) LocationOwned(ctx context.Context, locationID, userID string) (bool, error) {
	if s.locationOwnedFn == nil {
		return true, nil
	}
	return s.locationOwnedFn(ctx, locationID, userID)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s *stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s *stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubPurchaseService struct {
	createPurchaseFn func(ctx context.Context, req services.PurchaseRequest) (store.Purchase, error)
	getPurchaseFn    func(ctx context.Context, userID, purchaseID string) (store.Purchase, error)
	listPurchasesFn  func(ctx context.Context, userID string) ([]store.Purchase, error)
	rechargeFn       func(ctx context.Context, userID string, amountMinor int64) (int64, error)
}

func (s *stubPurchaseService) CreatePurchase(ctx context.Context, req services.PurchaseRequest) (store.Purchase, error) {
	if s.createPurchaseFn == nil {
		return store.Purchase{}, nil
	}
	return s.createPurchaseFn(ctx, req)
}

func (s *stubPurchaseService) GetPurchase(ctx context.Context, userID, purchaseID string) (store.Purchase, error) {
	if s.getPurchaseFn == nil {
		return store.Purchase{}, nil
	}
	return s.getPurchaseFn(ctx, userID, purchaseID)
}

func (s *stubPurchaseService) ListPurchases(ctx context.Context, userID string) ([]store.Purchase, error) {
	if s.listPurchasesFn == nil {
		return nil, nil
	}
	return s.listPurchasesFn(ctx, userID)
}

func (s *stubPurchaseService) Recharge(ctx context.Context, userID string, amountMinor int64) (int64, error) {
	if s.rechargeFn == nil {
		return 0, nil
	}
	return s.rechargeFn(ctx, userID, amountMinor)
}

const testSecret = "test-secret"

type testDeps struct {
	users       *stubUserStore
	services    *stubServiceStore
	numbers     *stubNumberStore
	roles       *stubRoleStore
	gateway     *stubGatewayStore
	audit       *stubAuditStore
	purchaseSvc *stubPurchaseService
	txRunner    fakeTxRunner
}

func newTestDeps() *testDeps {
	return &testDeps{
		users:       &stubUserStore{},
		services:    &stubServiceStore{},
		numbers:     &stubNumberStore{},
		roles:       &stubRoleStore{},
		gateway:     &stubGatewayStore{},
		audit:       &stubAuditStore{},
		purchaseSvc: &stubPurchaseService{},
	}
}

func newTestRouter(deps *testDeps) http.Handler {
	cfg := config.Config{
		JWTSecret:       testSecret,
		TokenTTL:        time.Minute,
		AllowedOrigins:  "*",
		StartingBalance: 5000,
	}
	limiter := middleware.NewRateLimiter(1000, 1000, time.Minute)
	handler := New(deps.txRunner, cfg, deps.users, deps.services, deps.numbers, deps.roles, deps.gateway, deps.audit, deps.purchaseSvc, websocket.NewHub(), limiter)
	return handler.Routes()
}

func bearerToken(userID string) string {
	token, err := auth.GenerateToken(testSecret, userID, time.Minute)
	if err != nil {
		panic(err)
	}
	return "Bearer " + token
}
