package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"chipsms/internal/db"
	"chipsms/internal/metrics"
	"chipsms/internal/money"
	"chipsms/internal/store"
	"chipsms/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceInactive   = errors.New("service is not active")
	ErrNumberNotFound    = errors.New("number not found")
	ErrPurchaseNotFound  = errors.New("purchase not found")
)

// Recharge bounds in minor units: R$ 5,00 to R$ 1.000,00.
const (
	MinRechargeMinor = 500
	MaxRechargeMinor = 100000
)

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance int64) error
}

type ServiceStore interface {
	GetByID(ctx context.Context, serviceID string) (store.Service, error)
}

type NumberStore interface {
	GetByNumber(ctx context.Context, number string) (store.PhoneNumber, error)
}

type PurchaseStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PurchaseInput) error
	GetByID(ctx context.Context, purchaseID string) (store.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]store.Purchase, error)
	Fulfill(ctx context.Context, tx store.Execer, purchaseID, code string) (int64, error)
	ListPendingIDs(ctx context.Context) ([]string, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type UpdateHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
	BroadcastSms(userID string, update websocket.SmsDelivered)
}

// Scheduler hands a freshly created purchase to the fulfillment simulator.
type Scheduler interface {
	Schedule(purchaseID string)
}

type PurchaseService struct {
	txRunner  db.TxRunner
	users     UserStore
	services  ServiceStore
	numbers   NumberStore
	purchases PurchaseStore
	audit     AuditStore
	hub       UpdateHub
	scheduler Scheduler
}

func NewPurchaseService(txRunner db.TxRunner, users UserStore, services ServiceStore, numbers NumberStore, purchases PurchaseStore, audit AuditStore, hub UpdateHub) *PurchaseService {
	return &PurchaseService{
		txRunner:  txRunner,
		users:     users,
		services:  services,
		numbers:   numbers,
		purchases: purchases,
		audit:     audit,
		hub:       hub,
	}
}

// SetScheduler wires the fulfillment simulator in after construction; the
// simulator itself calls back into Fulfill, so the two are built in sequence.
func (s *PurchaseService) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

type PurchaseRequest struct {
	UserID    string
	ServiceID string
	Number    string
}

// CreatePurchase debits the buyer and appends a pending ledger entry in one
// serializable transaction: a failed debit leaves no record, and a created
// record has already paid. Fulfillment is scheduled only after commit.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req PurchaseRequest) (store.Purchase, error) {
	service, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Purchase{}, ErrServiceNotFound
		}
		return store.Purchase{}, err
	}
	if !service.IsActive {
		return store.Purchase{}, ErrServiceInactive
	}
	number, err := s.numbers.GetByNumber(ctx, req.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Purchase{}, ErrNumberNotFound
		}
		return store.Purchase{}, err
	}

	purchaseID := uuid.NewString()
	var balanceAfter int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user.Balance < service.Price {
			return ErrInsufficientFunds
		}
		balanceAfter = user.Balance - service.Price
		if err := s.users.UpdateBalance(ctx, tx, req.UserID, balanceAfter); err != nil {
			return err
		}
		if err := s.purchases.Create(ctx, tx, store.PurchaseInput{
			ID:          purchaseID,
			UserID:      req.UserID,
			ServiceName: service.Name,
			Price:       service.Price,
			Number:      number.Number,
			Demo:        number.Demo,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"service_id": service.ID,
			"number":     number.Number,
			"price":      money.FormatMinor(service.Price),
		})
		return s.audit.Log(ctx, tx, req.UserID, "purchase", "purchase", purchaseID, string(data))
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.RecordPurchase("insufficient_funds")
		} else {
			metrics.RecordPurchase("error")
		}
		return store.Purchase{}, err
	}

	metrics.RecordPurchase("created")
	s.hub.BroadcastBalance(req.UserID, websocket.BalanceUpdate{
		Balance: money.FormatMinor(balanceAfter),
	})
	if s.scheduler != nil {
		s.scheduler.Schedule(purchaseID)
	}
	return s.purchases.GetByID(ctx, purchaseID)
}

func (s *PurchaseService) GetPurchase(ctx context.Context, userID, purchaseID string) (store.Purchase, error) {
	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Purchase{}, ErrPurchaseNotFound
		}
		return store.Purchase{}, err
	}
	if purchase.UserID != userID {
		return store.Purchase{}, ErrPurchaseNotFound
	}
	return purchase, nil
}

func (s *PurchaseService) ListPurchases(ctx context.Context, userID string) ([]store.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID)
}

// Fulfill applies the pending -> fulfilled transition. A missing or already
// fulfilled purchase is a benign no-op: the simulator has no caller to
// report to.
func (s *PurchaseService) Fulfill(ctx context.Context, purchaseID, code string) error {
	var updated int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := s.purchases.Fulfill(ctx, tx, purchaseID, code)
		if err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}
	metrics.RecordFulfillment()
	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	s.hub.BroadcastSms(purchase.UserID, websocket.SmsDelivered{
		PurchaseID: purchase.ID,
		Number:     purchase.Number,
		Code:       code,
	})
	return nil
}

// PendingPurchaseIDs lists purchases awaiting a code, for simulator recovery
// after a restart.
func (s *PurchaseService) PendingPurchaseIDs(ctx context.Context) ([]string, error) {
	return s.purchases.ListPendingIDs(ctx)
}

// Recharge credits the account. Amounts outside the accepted bounds are
// rejected before any mutation.
func (s *PurchaseService) Recharge(ctx context.Context, userID string, amountMinor int64) (int64, error) {
	if amountMinor < MinRechargeMinor || amountMinor > MaxRechargeMinor {
		metrics.RecordRecharge("invalid_amount")
		return 0, ErrInvalidAmount
	}
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		balanceAfter = user.Balance + amountMinor
		if err := s.users.UpdateBalance(ctx, tx, userID, balanceAfter); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"amount": money.FormatMinor(amountMinor),
		})
		return s.audit.Log(ctx, tx, userID, "recharge", "user", userID, string(data))
	})
	if err != nil {
		metrics.RecordRecharge("error")
		return 0, err
	}
	metrics.RecordRecharge("credited")
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		Balance: money.FormatMinor(balanceAfter),
	})
	return balanceAfter, nil
}
