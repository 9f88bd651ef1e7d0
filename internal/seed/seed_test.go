package seed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/property"
	"github.com/MrJamesThe3rd/revstay/internal/seed"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

func newSeeder(t *testing.T) (*seed.Seeder, *seed.MockUserStore, *seed.MockPropertyStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := seed.NewMockUserStore(ctrl)
	properties := seed.NewMockPropertyStore(ctrl)

	return seed.NewSeeder(users, properties, zap.NewNop()), users, properties
}

func TestSeeder_EnsureAdmin(t *testing.T) {
	s, users, _ := newSeeder(t)

	users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) (bool, error) {
		assert.Equal(t, seed.AdminUsername, u.Username)
		assert.Equal(t, user.RoleAdmin, u.Role)
		assert.Equal(t, seed.Actor, u.Audit.CreatedBy)
		u.ID = uuid.New()

		return true, nil
	})

	admin, err := s.EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, admin.ID)
}

func TestSeeder_Users(t *testing.T) {
	s, users, _ := newSeeder(t)

	existingID := uuid.New()

	gomock.InOrder(
		users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(true, nil),
		users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) (bool, error) {
			u.ID = existingID
			u.FullName = "Bob From Before"

			return false, nil
		}),
	)

	got, err := s.Users(context.Background(), []seed.UserRow{
		{Username: "alice", FullName: "Alice", Email: "alice@example.com", Role: user.RoleBuyer},
		{Username: "bob", FullName: "Bob", Email: "bob@example.com", Role: user.RoleSeller},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Active)
	assert.Equal(t, existingID, got[1].ID)
	assert.Equal(t, "Bob From Before", got[1].FullName)
}

func TestSeeder_Users_StoreError(t *testing.T) {
	s, users, _ := newSeeder(t)

	users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(false, errors.New("db down"))

	_, err := s.Users(context.Background(), []seed.UserRow{{Username: "alice", Role: user.RoleBuyer}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeding user alice")
}

func TestSeeder_Properties(t *testing.T) {
	s, users, properties := newSeeder(t)

	bob := &user.User{ID: uuid.New(), Username: "bob", Role: user.RoleSeller}
	price := int64(500000)

	users.EXPECT().FindByUsername(gomock.Any(), "bob").Return(bob, nil).Times(1)
	properties.EXPECT().ExistsByTitle(gomock.Any(), bob.ID, "Villa").Return(false, nil)
	properties.EXPECT().ExistsByTitle(gomock.Any(), bob.ID, "Cottage").Return(true, nil)
	properties.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *property.Property) error {
		assert.Equal(t, bob.ID, p.SellerID)
		assert.Equal(t, "Villa", p.Title)
		assert.Equal(t, &price, p.Price)

		return nil
	})

	created, err := s.Properties(context.Background(), []seed.PropertyRow{
		{Seller: "bob", Title: "Villa", Location: "Goa", Price: &price},
		{Seller: "bob", Title: "Cottage", Location: "Ooty"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestSeeder_Properties_OwnerMustSell(t *testing.T) {
	tests := []struct {
		name    string
		found   *user.User
		findErr error
		wantIs  error
	}{
		{name: "Buyer", found: &user.User{Username: "alice", Role: user.RoleBuyer}, wantIs: seed.ErrNotSeller},
		{name: "Unknown", findErr: user.ErrNotFound, wantIs: user.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, users, _ := newSeeder(t)

			users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(tt.found, tt.findErr)

			created, err := s.Properties(context.Background(), []seed.PropertyRow{{Seller: "alice", Title: "Villa"}})
			require.ErrorIs(t, err, tt.wantIs)
			assert.Zero(t, created)
		})
	}
}
