package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/property"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a listing owned by p.SellerID. Listings start available.
func (s *Store) Create(ctx context.Context, p *property.Property) error {
	query := `
		INSERT INTO properties (seller_id, title, description, property_type, location, price, is_available, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, NOW())
		RETURNING id, is_available, version, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.SellerID,
		p.Title,
		p.Description,
		p.PropertyType,
		p.Location,
		p.Price,
		p.Audit.CreatedBy,
	).Scan(&p.ID, &p.IsAvailable, &p.Version, &p.Audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating property: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	query := `
		SELECT p.id, p.seller_id, p.title, p.description, p.property_type, p.location,
			p.price, p.is_available, p.version, p.created_by, p.created_at,
			u.username, u.full_name, u.email
		FROM properties p
		JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1
	`

	var (
		p      property.Property
		seller property.Seller
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PropertyType, &p.Location,
		&p.Price, &p.IsAvailable, &p.Version, &p.Audit.CreatedBy, &p.Audit.CreatedAt,
		&seller.Username, &seller.FullName, &seller.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, property.ErrNotFound
		}

		return nil, fmt.Errorf("getting property: %w", err)
	}

	p.Seller = &seller

	return &p, nil
}

// ExistsByTitle reports whether the seller already lists a property with
// this title. The seed tool uses it to stay idempotent.
func (s *Store) ExistsByTitle(ctx context.Context, sellerID uuid.UUID, title string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM properties WHERE seller_id = $1 AND title = $2)`,
		sellerID, title,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking property: %w", err)
	}

	return exists, nil
}
