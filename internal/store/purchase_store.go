package store

import "context"

type PurchaseStore struct {
	db DB
}

func NewPurchaseStore(db DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

type Purchase struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	ServiceName string  `db:"service_name"`
	Price       int64   `db:"price"`
	Number      string  `db:"number"`
	SmsCode     *string `db:"sms_code"`
	Used        bool    `db:"used"`
	Demo        bool    `db:"demo"`
	CreatedAt   any     `db:"created_at"`
	FulfilledAt any     `db:"fulfilled_at"`
}

type PurchaseInput struct {
	ID          string
	UserID      string
	ServiceName string
	Price       int64
	Number      string
	Demo        bool
}

// Create appends a pending ledger entry. Service name and price are stored as
// a snapshot so later catalog edits never alter history.
func (s *PurchaseStore) Create(ctx context.Context, tx Execer, input PurchaseInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, service_name, price, number, sms_code, used, demo)
		VALUES ($1, $2, $3, $4, $5, NULL, FALSE, $6)
	`, input.ID, input.UserID, input.ServiceName, input.Price, input.Number, input.Demo)
	return err
}

func (s *PurchaseStore) GetByID(ctx context.Context, purchaseID string) (Purchase, error) {
	var row Purchase
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, service_name, price, number, sms_code, used, demo, created_at, fulfilled_at
		FROM purchases
		WHERE id = $1
	`, purchaseID)
	if err != nil {
		return Purchase{}, err
	}
	return row, nil
}

func (s *PurchaseStore) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	var rows []Purchase
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, service_name, price, number, sms_code, used, demo, created_at, fulfilled_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Fulfill applies the pending -> fulfilled transition. The sms_code IS NULL
// guard makes the transition idempotent: a second attempt matches no rows.
func (s *PurchaseStore) Fulfill(ctx context.Context, tx Execer, purchaseID, code string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE purchases
		SET sms_code = $1, used = TRUE, fulfilled_at = NOW()
		WHERE id = $2 AND sms_code IS NULL
	`, code, purchaseID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListPendingIDs feeds fulfillment recovery after a restart.
func (s *PurchaseStore) ListPendingIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM purchases
		WHERE sms_code IS NULL
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
