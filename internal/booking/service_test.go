package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	"github.com/MrJamesThe3rd/revstay/internal/property"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type mocks struct {
	repo     *booking.MockRepository
	tx       *booking.MockTx
	users    *booking.MockUserFinder
	gateway  *booking.MockGateway
	notifier *booking.MockNotifier
}

func newService(t *testing.T) (*booking.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mocks{
		repo:     booking.NewMockRepository(ctrl),
		tx:       booking.NewMockTx(ctrl),
		users:    booking.NewMockUserFinder(ctrl),
		gateway:  booking.NewMockGateway(ctrl),
		notifier: booking.NewMockNotifier(ctrl),
	}

	svc := booking.NewService(m.repo, m.users, m.gateway, m.notifier, zap.NewNop(),
		booking.WithCurrency("INR"),
		booking.WithClock(func() time.Time { return fixedNow }),
	)

	return svc, m
}

// expectTx expects exactly one transaction which is always rolled back on exit.
func (m mocks) expectTx() {
	m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback().Return(nil).AnyTimes()
}

var (
	alice = &user.User{ID: uuid.New(), Username: "alice", FullName: "Alice Buyer", Email: "alice@example.com", Role: user.RoleBuyer}
	bob   = &user.User{ID: uuid.New(), Username: "bob", FullName: "Bob Seller", Email: "bob@example.com", Role: user.RoleSeller}
)

func listing(price *int64, available bool) *property.Property {
	return &property.Property{
		ID:          uuid.New(),
		SellerID:    bob.ID,
		Title:       "Sea View Villa",
		Location:    "Goa",
		Price:       price,
		IsAvailable: available,
		Version:     3,
		Seller:      &property.Seller{Username: bob.Username, FullName: bob.FullName, Email: bob.Email},
	}
}

func existing(status booking.Status) *booking.Booking {
	return &booking.Booking{
		ID:            uuid.New(),
		PropertyID:    uuid.New(),
		BuyerID:       alice.ID,
		Status:        status,
		Amount:        500000,
		Currency:      "INR",
		TransactionID: "order_1",
		Property: &booking.PropertyRef{
			Title:    "Sea View Villa",
			SellerID: bob.ID,
			Seller:   booking.Party{Username: bob.Username, FullName: bob.FullName, Email: bob.Email},
		},
		Buyer: &booking.Party{Username: alice.Username, FullName: alice.FullName, Email: alice.Email},
	}
}

func TestService_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, m := newService(t)
		prop := listing(new(int64(500000)), true)

		m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
		m.expectTx()
		m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(500000), "INR").
			Return(&payment.Order{ID: "order_abc", Amount: 500000, Currency: "INR"}, nil)

		var created *booking.Booking
		gomock.InOrder(
			m.tx.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, b *booking.Booking) error {
					created = b
					return nil
				}),
			m.tx.EXPECT().ClaimProperty(gomock.Any(), prop.ID, int64(3), "alice").Return(nil),
			m.tx.EXPECT().Commit().Return(nil),
			m.notifier.EXPECT().Enqueue(notify.Message{
				Template:  notify.TemplateBookingConfirmation,
				Recipient: "alice@example.com",
				Variables: map[string]string{"propertyTitle": "Sea View Villa", "amount": "5000.00", "currency": "INR"},
			}),
			m.notifier.EXPECT().Enqueue(notify.Message{
				Template:  notify.TemplateBookingNotification,
				Recipient: "bob@example.com",
				Variables: map[string]string{
					"propertyTitle": "Sea View Villa", "buyerName": "Alice Buyer", "amount": "5000.00", "currency": "INR",
				},
			}),
		)

		got, err := svc.Create(context.Background(), "alice", prop.ID, booking.CreateParams{})
		require.NoError(t, err)

		assert.Same(t, created, got)
		assert.Equal(t, booking.StatusPending, got.Status)
		assert.Equal(t, int64(500000), got.Amount)
		assert.Equal(t, "order_abc", got.TransactionID)
		assert.Equal(t, alice.ID, got.BuyerID)
		assert.Equal(t, prop.ID, got.PropertyID)
		assert.Equal(t, fixedNow, got.BookingDate)
		assert.Equal(t, "alice", got.Audit.CreatedBy)
		assert.Nil(t, got.PaymentID)
	})

	t.Run("RequestedBookingDate", func(t *testing.T) {
		svc, m := newService(t)
		prop := listing(new(int64(100)), true)
		date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

		m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
		m.expectTx()
		m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
		m.gateway.EXPECT().CreateOrder(gomock.Any(), int64(100), "INR").Return(&payment.Order{ID: "order_x"}, nil)
		m.tx.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().ClaimProperty(gomock.Any(), prop.ID, int64(3), "alice").Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.notifier.EXPECT().Enqueue(gomock.Any()).Times(2)

		got, err := svc.Create(context.Background(), "alice", prop.ID, booking.CreateParams{BookingDate: &date})
		require.NoError(t, err)
		assert.Equal(t, date, got.BookingDate)
	})

	type testCase struct {
		name    string
		setup   func(m mocks, prop *property.Property)
		price   *int64
		avail   bool
		wantErr error
	}

	tests := []testCase{
		{
			name: "BuyerNotFound",
			setup: func(m mocks, _ *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(nil, user.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "PropertyNotFound",
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(nil, property.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:  "Unavailable",
			price: new(int64(500000)),
			avail: false,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
			},
			wantErr: booking.ErrPropertyUnavailable,
		},
		{
			name:  "NoPrice",
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
			},
			wantErr: booking.ErrInvalidPrice,
		},
		{
			name:  "ZeroPrice",
			price: new(int64(0)),
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
			},
			wantErr: booking.ErrInvalidPrice,
		},
		{
			name:  "GatewayFailure",
			price: new(int64(500000)),
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
				m.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			wantErr: apperr.ErrGateway,
		},
		{
			name:  "GatewayRejectsAmount",
			price: new(int64(500000)),
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
				m.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, payment.ErrInvalidAmount)
			},
			wantErr: apperr.ErrInvalidArgument,
		},
		{
			name:  "ClaimLostRace",
			price: new(int64(500000)),
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
				m.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(&payment.Order{ID: "order_1"}, nil)
				m.tx.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).Return(nil)
				m.tx.EXPECT().ClaimProperty(gomock.Any(), prop.ID, int64(3), "alice").Return(booking.ErrPropertyUnavailable)
			},
			wantErr: booking.ErrPropertyUnavailable,
		},
		{
			name:  "CommitFailure",
			price: new(int64(500000)),
			avail: true,
			setup: func(m mocks, prop *property.Property) {
				m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
				m.expectTx()
				m.tx.EXPECT().LockProperty(gomock.Any(), prop.ID).Return(prop, nil)
				m.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(&payment.Order{ID: "order_1"}, nil)
				m.tx.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).Return(nil)
				m.tx.EXPECT().ClaimProperty(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.tx.EXPECT().Commit().Return(errCommit)
			},
			wantErr: errCommit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			prop := listing(tt.price, tt.avail)
			tt.setup(m, prop)

			got, err := svc.Create(context.Background(), "alice", prop.ID, booking.CreateParams{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

var errCommit = errors.New("commit failed")

func TestService_UpdateStatus(t *testing.T) {
	t.Run("SellerConfirmsWithPayment", func(t *testing.T) {
		svc, m := newService(t)
		b := existing(booking.StatusPending)

		m.expectTx()
		m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)
		m.gateway.EXPECT().VerifyPayment("order_1", "pay_1", "sig_1").Return(true)
		m.tx.EXPECT().UpdateBooking(gomock.Any(), b).Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.notifier.EXPECT().Enqueue(notify.Message{
			Template:  notify.TemplateStatusUpdateBuyer,
			Recipient: "alice@example.com",
			Variables: map[string]string{"propertyTitle": "Sea View Villa", "status": "CONFIRMED"},
		})
		m.notifier.EXPECT().Enqueue(notify.Message{
			Template:  notify.TemplateStatusUpdateSeller,
			Recipient: "bob@example.com",
			Variables: map[string]string{"propertyTitle": "Sea View Villa", "status": "CONFIRMED"},
		})

		got, err := svc.UpdateStatus(context.Background(), "bob", b.ID, "confirmed",
			booking.PaymentProof{PaymentID: "pay_1", Signature: "sig_1"})
		require.NoError(t, err)

		assert.Equal(t, booking.StatusConfirmed, got.Status)
		require.NotNil(t, got.PaymentID)
		assert.Equal(t, "pay_1", *got.PaymentID)
		assert.Equal(t, "sig_1", *got.PaymentSignature)
		assert.Equal(t, "bob", got.Audit.LastModifiedBy)
		assert.Equal(t, fixedNow, *got.Audit.LastModifiedAt)
	})

	t.Run("ConfirmWithoutProofSkipsVerification", func(t *testing.T) {
		svc, m := newService(t)
		b := existing(booking.StatusPending)

		m.expectTx()
		m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)
		m.tx.EXPECT().UpdateBooking(gomock.Any(), b).Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.notifier.EXPECT().Enqueue(gomock.Any()).Times(2)

		got, err := svc.UpdateStatus(context.Background(), "alice", b.ID, "CONFIRMED", booking.PaymentProof{PaymentID: "pay_1"})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, got.Status)
		assert.Nil(t, got.PaymentID)
	})

	t.Run("CancelReleasesProperty", func(t *testing.T) {
		svc, m := newService(t)
		b := existing(booking.StatusConfirmed)

		m.expectTx()
		m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)
		gomock.InOrder(
			m.tx.EXPECT().UpdateBooking(gomock.Any(), b).Return(nil),
			m.tx.EXPECT().ReleaseProperty(gomock.Any(), b.PropertyID, "bob").Return(nil),
			m.tx.EXPECT().Commit().Return(nil),
		)
		m.notifier.EXPECT().Enqueue(gomock.Any()).Times(2)

		got, err := svc.UpdateStatus(context.Background(), "bob", b.ID, "CANCELLED", booking.PaymentProof{})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)
	})

	type testCase struct {
		name    string
		status  booking.Status
		actor   string
		target  string
		proof   booking.PaymentProof
		setup   func(m mocks)
		wantErr error
	}

	tests := []testCase{
		{name: "Stranger", status: booking.StatusPending, actor: "mallory", target: "CONFIRMED", wantErr: booking.ErrNotParty},
		{name: "EmptyActor", status: booking.StatusPending, actor: "", target: "CONFIRMED", wantErr: booking.ErrNotParty},
		{name: "UnknownStatus", status: booking.StatusPending, actor: "alice", target: "ARCHIVED", wantErr: apperr.ErrInvalidArgument},
		{name: "SelfTransition", status: booking.StatusPending, actor: "bob", target: "PENDING", wantErr: apperr.ErrInvalidState},
		{name: "CompletedToPending", status: booking.StatusCompleted, actor: "bob", target: "PENDING", wantErr: apperr.ErrInvalidState},
		{name: "CancelledToConfirmed", status: booking.StatusCancelled, actor: "bob", target: "CONFIRMED", wantErr: apperr.ErrInvalidState},
		{name: "PendingToCompleted", status: booking.StatusPending, actor: "bob", target: "COMPLETED", wantErr: apperr.ErrInvalidState},
		{
			name:   "BadSignature",
			status: booking.StatusPending,
			actor:  "bob",
			target: "CONFIRMED",
			proof:  booking.PaymentProof{PaymentID: "pay_real", Signature: "forged"},
			setup: func(m mocks) {
				m.gateway.EXPECT().VerifyPayment("order_1", "pay_real", "forged").Return(false)
			},
			wantErr: booking.ErrPaymentVerification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			b := existing(tt.status)

			m.expectTx()
			m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)
			if tt.setup != nil {
				tt.setup(m)
			}

			_, err := svc.UpdateStatus(context.Background(), tt.actor, b.ID, tt.target, tt.proof)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.status, b.Status)
			assert.Nil(t, b.PaymentID)
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		svc, m := newService(t)
		id := uuid.New()

		m.expectTx()
		m.tx.EXPECT().LockBooking(gomock.Any(), id).Return(nil, booking.ErrBookingNotFound)

		_, err := svc.UpdateStatus(context.Background(), "alice", id, "CONFIRMED", booking.PaymentProof{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_Cancel(t *testing.T) {
	for _, status := range []booking.Status{booking.StatusPending, booking.StatusConfirmed} {
		t.Run("From"+string(status), func(t *testing.T) {
			svc, m := newService(t)
			b := existing(status)

			m.expectTx()
			m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)
			m.tx.EXPECT().UpdateBooking(gomock.Any(), b).Return(nil)
			m.tx.EXPECT().ReleaseProperty(gomock.Any(), b.PropertyID, "alice").Return(nil)
			m.tx.EXPECT().Commit().Return(nil)
			m.notifier.EXPECT().Enqueue(gomock.Any()).Times(2)

			got, err := svc.Cancel(context.Background(), "alice", b.ID)
			require.NoError(t, err)
			assert.Equal(t, booking.StatusCancelled, got.Status)
			assert.Equal(t, "alice", got.Audit.LastModifiedBy)
		})
	}

	tests := []struct {
		name    string
		status  booking.Status
		actor   string
		wantErr error
	}{
		{name: "Seller", status: booking.StatusPending, actor: "bob", wantErr: booking.ErrNotBuyer},
		{name: "Stranger", status: booking.StatusPending, actor: "mallory", wantErr: booking.ErrNotBuyer},
		{name: "AlreadyCancelled", status: booking.StatusCancelled, actor: "alice", wantErr: booking.ErrAlreadyCancelled},
		{name: "Completed", status: booking.StatusCompleted, actor: "alice", wantErr: booking.ErrCancelCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			b := existing(tt.status)

			m.expectTx()
			m.tx.EXPECT().LockBooking(gomock.Any(), b.ID).Return(b, nil)

			_, err := svc.Cancel(context.Background(), tt.actor, b.ID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.status, b.Status)
		})
	}
}

func TestService_Get(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		wantErr error
	}{
		{name: "Buyer", actor: "alice"},
		{name: "Seller", actor: "bob"},
		{name: "Stranger", actor: "mallory", wantErr: booking.ErrNotParty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			b := existing(booking.StatusPending)

			m.repo.EXPECT().GetBooking(gomock.Any(), b.ID).Return(b, nil)

			got, err := svc.Get(context.Background(), tt.actor, b.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, b.ID, got.ID)
		})
	}
}

func TestService_Lists(t *testing.T) {
	t.Run("BuyerBookings", func(t *testing.T) {
		svc, m := newService(t)
		want := []*booking.Booking{existing(booking.StatusPending)}

		m.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil)
		m.repo.EXPECT().ListByBuyer(gomock.Any(), alice.ID).Return(want, nil)

		got, err := svc.BuyerBookings(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("UnknownSeller", func(t *testing.T) {
		svc, m := newService(t)

		m.users.EXPECT().FindByUsername(gomock.Any(), "ghost").Return(nil, user.ErrNotFound)

		_, err := svc.SellerBookings(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("SellerSummary", func(t *testing.T) {
		svc, m := newService(t)

		rows := []*booking.Booking{
			existing(booking.StatusPending),
			existing(booking.StatusConfirmed),
			existing(booking.StatusCompleted),
			existing(booking.StatusCancelled),
			existing(booking.StatusCancelled),
		}

		m.users.EXPECT().FindByUsername(gomock.Any(), "bob").Return(bob, nil)
		m.repo.EXPECT().ListBySeller(gomock.Any(), bob.ID).Return(rows, nil)

		got, err := svc.SellerSummary(context.Background(), "bob")
		require.NoError(t, err)
		assert.Equal(t, booking.SellerSummary{
			Total: 5, Pending: 1, Confirmed: 1, Cancelled: 2, Completed: 1, Revenue: 1000000,
		}, got)
	})

	t.Run("PropertyBookingsOnlyForSeller", func(t *testing.T) {
		svc, m := newService(t)
		prop := listing(new(int64(100)), true)

		m.repo.EXPECT().GetProperty(gomock.Any(), prop.ID).Return(prop, nil).Times(2)
		m.repo.EXPECT().ListByProperty(gomock.Any(), prop.ID).Return(nil, nil)

		_, err := svc.PropertyBookings(context.Background(), "bob", prop.ID)
		require.NoError(t, err)

		_, err = svc.PropertyBookings(context.Background(), "alice", prop.ID)
		assert.ErrorIs(t, err, booking.ErrNotPropertySeller)
	})
}
