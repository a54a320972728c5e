package handlers

import (
	"context"

	"chipsms/internal/services"
	"chipsms/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, balance int64) error
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, userID, username string, balance int64) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID string) (int64, error)
	ListAllWithRoles(ctx context.Context) ([]store.UserWithRoles, error)
}

type ServiceStore interface {
	ListActive(ctx context.Context) ([]store.Service, error)
	ListAll(ctx context.Context) ([]store.Service, error)
	Create(ctx context.Context, tx store.Execer, input store.ServiceInput) error
	Update(ctx context.Context, tx store.Execer, input store.ServiceInput, isActive bool) (int64, error)
	Delete(ctx context.Context, tx store.Execer, serviceID string) (int64, error)
}

type NumberStore interface {
	ListAvailable(ctx context.Context) ([]store.PhoneNumber, error)
}

type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	Grant(ctx context.Context, tx store.Execer, userID, role string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type GatewayStore interface {
	CreateLocation(ctx context.Context, tx store.Execer, id, userID, name, apiKey string) error
	ListLocationsByUser(ctx context.Context, userID string) ([]store.Location, error)
	GetLocationByAPIKey(ctx context.Context, apiKey string) (store.Location, error)
	DeleteLocation(ctx context.Context, tx store.Execer, locationID, userID string) (int64, error)
	TouchLocation(ctx context.Context, tx store.Execer, locationID string) error
	UpsertModem(ctx context.Context, tx store.Getter, input store.ModemInput) (string, error)
	UpsertChip(ctx context.Context, tx store.Execer, input store.ChipInput) error
	ListModems(ctx context.Context, locationID string) ([]store.Modem, error)
	ListChips(ctx context.Context, modemID string) ([]store.Chip, error)
	LocationOwned(ctx context.Context, locationID, userID string) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type PurchaseService interface {
	CreatePurchase(ctx context.Context, req services.PurchaseRequest) (store.Purchase, error)
	GetPurchase(ctx context.Context, userID, purchaseID string) (store.Purchase, error)
	ListPurchases(ctx context.Context, userID string) ([]store.Purchase, error)
	Recharge(ctx context.Context, userID string, amountMinor int64) (int64, error)
}
