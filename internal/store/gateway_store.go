package store

import "context"

type GatewayStore struct {
	db DB
}

func NewGatewayStore(db DB) *GatewayStore {
	return &GatewayStore{db: db}
}

type Location struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	Name       string `db:"name"`
	APIKey     string `db:"api_key"`
	IsActive   bool   `db:"is_active"`
	LastSeenAt any    `db:"last_seen_at"`
	CreatedAt  any    `db:"created_at"`
}

type Modem struct {
	ID             string  `db:"id"`
	LocationID     string  `db:"location_id"`
	PortName       string  `db:"port_name"`
	IMEI           *string `db:"imei"`
	Operator       *string `db:"operator"`
	SignalStrength *int    `db:"signal_strength"`
	Status         string  `db:"status"`
	LastSeenAt     any     `db:"last_seen_at"`
}

type Chip struct {
	ID          string  `db:"id"`
	ModemID     string  `db:"modem_id"`
	PhoneNumber string  `db:"phone_number"`
	ICCID       *string `db:"iccid"`
	Operator    *string `db:"operator"`
	Status      string  `db:"status"`
}

type ModemInput struct {
	LocationID     string
	PortName       string
	IMEI           *string
	Operator       *string
	SignalStrength *int
	Status         string
}

type ChipInput struct {
	ModemID     string
	PhoneNumber string
	ICCID       *string
	Operator    *string
	Status      string
}

func (s *GatewayStore) CreateLocation(ctx context.Context, tx Execer, id, userID, name, apiKey string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO locations (id, user_id, name, api_key, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, id, userID, name, apiKey)
	return err
}

func (s *GatewayStore) ListLocationsByUser(ctx context.Context, userID string) ([]Location, error) {
	var rows []Location
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, name, api_key, is_active, last_seen_at, created_at
		FROM locations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GatewayStore) GetLocationByAPIKey(ctx context.Context, apiKey string) (Location, error) {
	var row Location
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, name, api_key, is_active, last_seen_at, created_at
		FROM locations
		WHERE api_key = $1 AND is_active = TRUE
	`, apiKey)
	if err != nil {
		return Location{}, err
	}
	return row, nil
}

func (s *GatewayStore) DeleteLocation(ctx context.Context, tx Execer, locationID, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM locations WHERE id = $1 AND user_id = $2
	`, locationID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *GatewayStore) TouchLocation(ctx context.Context, tx Execer, locationID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE locations SET last_seen_at = NOW() WHERE id = $1
	`, locationID)
	return err
}

// UpsertModem keys modems on (location_id, port_name) so repeated telemetry
// posts from app_gsm refresh the same row.
func (s *GatewayStore) UpsertModem(ctx context.Context, tx Getter, input ModemInput) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		INSERT INTO modems (id, location_id, port_name, imei, operator, signal_strength, status, last_seen_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (location_id, port_name) DO UPDATE
		SET imei = EXCLUDED.imei,
		    operator = EXCLUDED.operator,
		    signal_strength = EXCLUDED.signal_strength,
		    status = EXCLUDED.status,
		    last_seen_at = NOW()
		RETURNING id
	`, input.LocationID, input.PortName, input.IMEI, input.Operator, input.SignalStrength, input.Status)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *GatewayStore) UpsertChip(ctx context.Context, tx Execer, input ChipInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO chips (id, modem_id, phone_number, iccid, operator, status)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
		ON CONFLICT (modem_id, phone_number) DO UPDATE
		SET iccid = EXCLUDED.iccid,
		    operator = EXCLUDED.operator,
		    status = EXCLUDED.status
	`, input.ModemID, input.PhoneNumber, input.ICCID, input.Operator, input.Status)
	return err
}

func (s *GatewayStore) ListModems(ctx context.Context, locationID string) ([]Modem, error) {
	var rows []Modem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, location_id, port_name, imei, operator, signal_strength, status, last_seen_at
		FROM modems
		WHERE location_id = $1
		ORDER BY port_name ASC
	`, locationID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GatewayStore) ListChips(ctx context.Context, modemID string) ([]Chip, error) {
	var rows []Chip
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, modem_id, phone_number, iccid, operator, status
		FROM chips
		WHERE modem_id = $1
		ORDER BY phone_number ASC
	`, modemID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GatewayStore) LocationOwned(ctx context.Context, locationID, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM locations WHERE id = $1 AND user_id = $2)
	`, locationID, userID)
	return exists, err
}
