package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectUserColumns = `
	id, username, full_name, email, role, phone, active,
	created_by, created_at, last_modified_by, last_modified_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*user.User, error) {
	var (
		u          user.User
		role       string
		phone      sql.NullString
		modifiedBy sql.NullString
	)

	if err := s.Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &role, &phone, &u.Active,
		&u.Audit.CreatedBy, &u.Audit.CreatedAt, &modifiedBy, &u.Audit.LastModifiedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := user.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.Username, err)
	}

	u.Role = parsed
	u.Phone = phone.String
	u.Audit.LastModifiedBy = modifiedBy.String

	return &u, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("finding user: %w", err)
	}

	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("finding user: %w", err)
	}

	return u, nil
}

// Create inserts u unless the username is taken, in which case the
// existing row is left untouched and u is filled from it.
func (s *Store) Create(ctx context.Context, u *user.User) (bool, error) {
	query := `
		INSERT INTO users (username, full_name, email, role, phone, active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (username) DO NOTHING
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.Username,
		u.FullName,
		u.Email,
		u.Role,
		u.Phone,
		u.Active,
		u.Audit.CreatedBy,
	).Scan(&u.ID, &u.Audit.CreatedAt)
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("creating user: %w", err)
	}

	existing, err := s.FindByUsername(ctx, u.Username)
	if err != nil {
		return false, err
	}

	*u = *existing

	return false, nil
}
