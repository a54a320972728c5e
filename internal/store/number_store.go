package store

import "context"

type NumberStore struct {
	db DB
}

func NewNumberStore(db DB) *NumberStore {
	return &NumberStore{db: db}
}

type PhoneNumber struct {
	Port   string `db:"port"`
	Number string `db:"number"`
	Demo   bool   `db:"demo"`
	Label  string `db:"label"`
}

// ListAvailable returns the seeded demo numbers plus the phone numbers of
// active chips reported by the GSM gateway. Numbers are never reserved, so a
// number may appear in any number of purchases.
func (s *NumberStore) ListAvailable(ctx context.Context) ([]PhoneNumber, error) {
	var rows []PhoneNumber
	err := s.db.SelectContext(ctx, &rows, `
		SELECT port, number, demo, label
		FROM demo_numbers
		UNION ALL
		SELECT m.port_name AS port, c.phone_number AS number, FALSE AS demo, COALESCE(c.operator, '') AS label
		FROM chips c
		JOIN modems m ON m.id = c.modem_id
		WHERE c.status = 'active'
		ORDER BY demo DESC, port ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *NumberStore) GetByNumber(ctx context.Context, number string) (PhoneNumber, error) {
	var row PhoneNumber
	err := s.db.GetContext(ctx, &row, `
		SELECT port, number, demo, label
		FROM demo_numbers
		WHERE number = $1
		UNION ALL
		SELECT m.port_name AS port, c.phone_number AS number, FALSE AS demo, COALESCE(c.operator, '') AS label
		FROM chips c
		JOIN modems m ON m.id = c.modem_id
		WHERE c.phone_number = $1 AND c.status = 'active'
		LIMIT 1
	`, number)
	if err != nil {
		return PhoneNumber{}, err
	}
	return row, nil
}
