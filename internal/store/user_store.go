package store

import "context"

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type User struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Balance      int64  `db:"balance"`
	CreatedAt    any    `db:"created_at"`
}

type UserWithRoles struct {
	ID        string  `db:"id"`
	Username  string  `db:"username"`
	Email     string  `db:"email"`
	Balance   int64   `db:"balance"`
	Roles     *string `db:"roles"`
	CreatedAt any     `db:"created_at"`
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash string, balance int64) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, balance)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash, balance)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

// GetForUpdate locks the user row for the duration of the surrounding
// transaction. Every balance mutation goes through this lock.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (User, error) {
	var row User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) UpdateBalance(ctx context.Context, tx Execer, userID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, userID)
	return err
}

func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, userID, username string, balance int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET username = $1, balance = $2, updated_at = NOW()
		WHERE id = $3
	`, username, balance, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) Delete(ctx context.Context, tx Execer, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) ListAllWithRoles(ctx context.Context) ([]UserWithRoles, error) {
	var rows []UserWithRoles
	err := s.db.SelectContext(ctx, &rows, `
		SELECT u.id, u.username, u.email, u.balance, u.created_at,
		       STRING_AGG(r.role, ',') AS roles
		FROM users u
		LEFT JOIN user_roles r ON r.user_id = u.id
		GROUP BY u.id, u.username, u.email, u.balance, u.created_at
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
