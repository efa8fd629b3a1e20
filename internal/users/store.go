// Package users keeps reviewer accounts in the users table.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrInvalid        = errors.New("invalid user")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db   *sql.DB
	cost int
}

// NewStore hashes passwords with the given bcrypt cost; zero means 12.
func NewStore(db *sql.DB, cost int) *Store {
	if cost == 0 {
		cost = 12
	}
	return &Store{db: db, cost: cost}
}

// Upsert creates username or replaces its role and password.
func (s *Store) Upsert(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || role == "" {
		return User{}, fmt.Errorf("%w: username, password and role are required", ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, username, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (username) DO UPDATE SET role=EXCLUDED.role, password_hash=EXCLUDED.password_hash`,
		uuid.NewString(), username, role, string(hash), now.Unix())
	if err != nil {
		return User{}, err
	}
	return s.ByUsername(ctx, username)
}

func (s *Store) ByUsername(ctx context.Context, username string) (User, error) {
	u, _, err := s.lookup(ctx, `username=$1`, username)
	return u, err
}

func (s *Store) ByID(ctx context.Context, id string) (User, error) {
	u, _, err := s.lookup(ctx, `id=$1`, id)
	return u, err
}

func (s *Store) List(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id, username, role, created_at FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY username`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u       User
			created int64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

// Authenticate checks a password and returns the account.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, hash, err := s.lookup(ctx, `username=$1`, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// ChangePassword replaces the password of id after checking the old one.
func (s *Store) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password required", ErrInvalid)
	}
	_, hash, err := s.lookup(ctx, `id=$1`, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	next, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(next), id)
	return err
}

func (s *Store) lookup(ctx context.Context, where string, arg string) (User, string, error) {
	var (
		u       User
		hash    string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Role, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrNotFound
	}
	if err != nil {
		return User{}, "", err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, hash, nil
}
