package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/audit"
	"github.com/MrJamesThe3rd/revstay/internal/property"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

//go:generate mockgen -source=seed.go -destination=store_mock.go -package=seed

const (
	Actor         = "system"
	AdminUsername = "admin"
)

var ErrNotSeller = errors.New("property owner is not a seller")

type UserStore interface {
	// Create reports false when the username already existed, filling u
	// from the stored row.
	Create(ctx context.Context, u *user.User) (bool, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

type PropertyStore interface {
	Create(ctx context.Context, p *property.Property) error
	ExistsByTitle(ctx context.Context, sellerID uuid.UUID, title string) (bool, error)
}

// Seeder loads fixtures. Every step is idempotent so it can run on each
// start-up.
type Seeder struct {
	users      UserStore
	properties PropertyStore
	logger     *zap.Logger
	now        func() time.Time
}

func NewSeeder(users UserStore, properties PropertyStore, logger *zap.Logger) *Seeder {
	return &Seeder{users: users, properties: properties, logger: logger, now: time.Now}
}

// EnsureAdmin creates the admin account when it is missing.
func (s *Seeder) EnsureAdmin(ctx context.Context) (*user.User, error) {
	admin := &user.User{
		Username: AdminUsername,
		FullName: "Administrator",
		Email:    "admin@revstay.local",
		Role:     user.RoleAdmin,
		Active:   true,
		Audit:    audit.New(Actor, s.now()),
	}

	created, err := s.users.Create(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("seeding admin: %w", err)
	}

	if created {
		s.logger.Info("admin user created", zap.String("username", admin.Username))
	}

	return admin, nil
}

// Users creates every row not yet present and returns all of them,
// existing ones included.
func (s *Seeder) Users(ctx context.Context, rows []UserRow) ([]*user.User, error) {
	out := make([]*user.User, 0, len(rows))
	created := 0

	for _, row := range rows {
		u := &user.User{
			Username: row.Username,
			FullName: row.FullName,
			Email:    row.Email,
			Role:     row.Role,
			Phone:    row.Phone,
			Active:   true,
			Audit:    audit.New(Actor, s.now()),
		}

		ok, err := s.users.Create(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("seeding user %s: %w", row.Username, err)
		}

		if ok {
			created++
		}

		out = append(out, u)
	}

	s.logger.Info("users seeded", zap.Int("rows", len(rows)), zap.Int("created", created))

	return out, nil
}

// Properties creates listings whose title is new for their seller. It
// returns how many were created.
func (s *Seeder) Properties(ctx context.Context, rows []PropertyRow) (int, error) {
	sellers := make(map[string]*user.User)
	created := 0

	for _, row := range rows {
		seller, ok := sellers[row.Seller]
		if !ok {
			u, err := s.users.FindByUsername(ctx, row.Seller)
			if err != nil {
				return created, fmt.Errorf("property %q: %w", row.Title, err)
			}

			if u.Role != user.RoleSeller {
				return created, fmt.Errorf("property %q: %s: %w", row.Title, u.Username, ErrNotSeller)
			}

			sellers[row.Seller] = u
			seller = u
		}

		exists, err := s.properties.ExistsByTitle(ctx, seller.ID, row.Title)
		if err != nil {
			return created, err
		}

		if exists {
			continue
		}

		p := &property.Property{
			SellerID:     seller.ID,
			Title:        row.Title,
			Description:  row.Description,
			PropertyType: row.PropertyType,
			Location:     row.Location,
			Price:        row.Price,
			Audit:        audit.New(Actor, s.now()),
		}

		if err := s.properties.Create(ctx, p); err != nil {
			return created, fmt.Errorf("seeding property %q: %w", row.Title, err)
		}

		created++
	}

	s.logger.Info("properties seeded", zap.Int("rows", len(rows)), zap.Int("created", created))

	return created, nil
}
