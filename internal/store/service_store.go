package store

import "context"

type ServiceStore struct {
	db DB
}

func NewServiceStore(db DB) *ServiceStore {
	return &ServiceStore{db: db}
}

type Service struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Price     int64  `db:"price"`
	Duration  string `db:"duration"`
	Permanent bool   `db:"permanent"`
	Icon      string `db:"icon"`
	IsActive  bool   `db:"is_active"`
	CreatedAt any    `db:"created_at"`
}

type ServiceInput struct {
	ID        string
	Name      string
	Price     int64
	Duration  string
	Permanent bool
	Icon      string
}

// ListActive returns purchasable services ordered by ascending price, with
// catalog insertion order as the stable tie-break.
func (s *ServiceStore) ListActive(ctx context.Context) ([]Service, error) {
	var rows []Service
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, duration, permanent, icon, is_active, created_at
		FROM services
		WHERE is_active = TRUE
		ORDER BY price ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ServiceStore) ListAll(ctx context.Context) ([]Service, error) {
	var rows []Service
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, duration, permanent, icon, is_active, created_at
		FROM services
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ServiceStore) GetByID(ctx context.Context, serviceID string) (Service, error) {
	var row Service
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, price, duration, permanent, icon, is_active, created_at
		FROM services
		WHERE id = $1
	`, serviceID)
	if err != nil {
		return Service{}, err
	}
	return row, nil
}

func (s *ServiceStore) Create(ctx context.Context, tx Execer, input ServiceInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO services (id, name, price, duration, permanent, icon, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, input.ID, input.Name, input.Price, input.Duration, input.Permanent, input.Icon)
	return err
}

func (s *ServiceStore) Update(ctx context.Context, tx Execer, input ServiceInput, isActive bool) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE services
		SET name = $1, price = $2, duration = $3, permanent = $4, icon = $5, is_active = $6
		WHERE id = $7
	`, input.Name, input.Price, input.Duration, input.Permanent, input.Icon, isActive, input.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ServiceStore) Delete(ctx context.Context, tx Execer, serviceID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, serviceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
