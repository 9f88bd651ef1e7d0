// Package bookingtest provides an in-memory booking store for tests.
package bookingtest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/audit"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/property"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

// Store keeps users, properties and bookings in memory. Transactions are
// serialized: Begin blocks until the previous one commits or rolls back.
type Store struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	users      map[string]*user.User
	usersByID  map[uuid.UUID]*user.User
	properties map[uuid.UUID]*property.Property
	bookings   map[uuid.UUID]*booking.Booking
	order      []uuid.UUID

	// CommitErr, when set, fails the next commit.
	CommitErr error
}

func New() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		usersByID:  make(map[uuid.UUID]*user.User),
		properties: make(map[uuid.UUID]*property.Property),
		bookings:   make(map[uuid.UUID]*booking.Booking),
	}
}

// AddUser registers a user with an example.com address.
func (s *Store) AddUser(username, fullName string, role user.Role) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &user.User{
		ID:       uuid.New(),
		Username: username,
		FullName: fullName,
		Email:    username + "@example.com",
		Role:     role,
		Active:   true,
		Audit:    audit.New("system", time.Now()),
	}

	s.users[username] = u
	s.usersByID[u.ID] = u

	return u
}

// AddProperty lists an available property for seller. price is in minor units.
func (s *Store) AddProperty(seller *user.User, title string, price *int64) *property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &property.Property{
		ID:          uuid.New(),
		SellerID:    seller.ID,
		Title:       title,
		Location:    "Bengaluru",
		Price:       price,
		IsAvailable: true,
		Audit:       audit.New(seller.Username, time.Now()),
	}

	s.properties[p.ID] = p

	return s.hydrateProperty(p)
}

// Property returns a snapshot of the committed property.
func (s *Store) Property(id uuid.UUID) *property.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok {
		return nil
	}

	return s.hydrateProperty(p)
}

// Booking returns a snapshot of the committed booking.
func (s *Store) Booking(id uuid.UUID) *booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil
	}

	return s.hydrateBooking(b)
}

func (s *Store) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookings)
}

func (s *Store) FindByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

func (s *Store) GetBooking(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	if b := s.Booking(id); b != nil {
		return b, nil
	}

	return nil, booking.ErrBookingNotFound
}

func (s *Store) GetProperty(_ context.Context, id uuid.UUID) (*property.Property, error) {
	if p := s.Property(id); p != nil {
		return p, nil
	}

	return nil, property.ErrNotFound
}

func (s *Store) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*booking.Booking, error) {
	return s.list(func(b *booking.Booking) bool { return b.BuyerID == buyerID }), nil
}

func (s *Store) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]*booking.Booking, error) {
	return s.list(func(b *booking.Booking) bool {
		p, ok := s.properties[b.PropertyID]
		return ok && p.SellerID == sellerID
	}), nil
}

func (s *Store) ListByProperty(_ context.Context, propertyID uuid.UUID) ([]*booking.Booking, error) {
	return s.list(func(b *booking.Booking) bool { return b.PropertyID == propertyID }), nil
}

func (s *Store) list(match func(*booking.Booking) bool) []*booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*booking.Booking

	for _, id := range s.order {
		if b := s.bookings[id]; match(b) {
			out = append(out, s.hydrateBooking(b))
		}
	}

	return out
}

func (s *Store) Begin(_ context.Context) (booking.Tx, error) {
	s.txMu.Lock()

	return &tx{
		store:      s,
		properties: make(map[uuid.UUID]*property.Property),
		bookings:   make(map[uuid.UUID]*booking.Booking),
	}, nil
}

// hydrate* must be called with mu held.
func (s *Store) hydrateProperty(p *property.Property) *property.Property {
	cp := *p
	if seller, ok := s.usersByID[p.SellerID]; ok {
		cp.Seller = &property.Seller{Username: seller.Username, FullName: seller.FullName, Email: seller.Email}
	}

	return &cp
}

func (s *Store) hydrateBooking(b *booking.Booking) *booking.Booking {
	cp := *b

	if buyer, ok := s.usersByID[b.BuyerID]; ok {
		cp.Buyer = &booking.Party{Username: buyer.Username, FullName: buyer.FullName, Email: buyer.Email}
	}

	if p, ok := s.properties[b.PropertyID]; ok {
		ref := &booking.PropertyRef{Title: p.Title, Location: p.Location, SellerID: p.SellerID}
		if seller, ok := s.usersByID[p.SellerID]; ok {
			ref.Seller = booking.Party{Username: seller.Username, FullName: seller.FullName, Email: seller.Email}
		}

		cp.Property = ref
	}

	return &cp
}

type tx struct {
	store      *Store
	properties map[uuid.UUID]*property.Property
	bookings   map[uuid.UUID]*booking.Booking
	created    []uuid.UUID
	done       bool
}

func (t *tx) property(id uuid.UUID) (*property.Property, bool) {
	if p, ok := t.properties[id]; ok {
		return p, true
	}

	p, ok := t.store.properties[id]

	return p, ok
}

func (t *tx) booking(id uuid.UUID) (*booking.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}

	b, ok := t.store.bookings[id]

	return b, ok
}

func (t *tx) LockProperty(_ context.Context, id uuid.UUID) (*property.Property, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	p, ok := t.property(id)
	if !ok {
		return nil, property.ErrNotFound
	}

	return t.store.hydrateProperty(p), nil
}

func (t *tx) LockBooking(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	b, ok := t.booking(id)
	if !ok {
		return nil, booking.ErrBookingNotFound
	}

	return t.store.hydrateBooking(b), nil
}

func (t *tx) CreateBooking(_ context.Context, b *booking.Booking) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for _, id := range t.allBookingIDs() {
		existing, _ := t.booking(id)

		if existing.TransactionID == b.TransactionID {
			return booking.ErrDuplicateOrder
		}

		if existing.PropertyID == b.PropertyID && existing.Status.Active() {
			return booking.ErrPropertyUnavailable
		}
	}

	cp := *b
	cp.Property, cp.Buyer = nil, nil
	t.bookings[b.ID] = &cp
	t.created = append(t.created, b.ID)

	return nil
}

func (t *tx) allBookingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.store.order)+len(t.created))
	ids = append(ids, t.store.order...)

	return append(ids, t.created...)
}

func (t *tx) UpdateBooking(_ context.Context, b *booking.Booking) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	existing, ok := t.booking(b.ID)
	if !ok {
		return booking.ErrBookingNotFound
	}

	if existing.PropertyID != b.PropertyID || existing.BuyerID != b.BuyerID || existing.TransactionID != b.TransactionID {
		return apperr.New(apperr.ErrInvalidState, "immutable booking field changed")
	}

	cp := *b
	cp.Property, cp.Buyer = nil, nil
	t.bookings[b.ID] = &cp

	return nil
}

func (t *tx) ClaimProperty(_ context.Context, id uuid.UUID, version int64, actor string) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	p, ok := t.property(id)
	if !ok {
		return property.ErrNotFound
	}

	if !p.IsAvailable || p.Version != version {
		return booking.ErrPropertyUnavailable
	}

	cp := *p
	cp.IsAvailable = false
	cp.Version++
	cp.Audit.Touch(actor, time.Now())
	t.properties[id] = &cp

	return nil
}

func (t *tx) ReleaseProperty(_ context.Context, id uuid.UUID, actor string) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	p, ok := t.property(id)
	if !ok {
		return property.ErrNotFound
	}

	cp := *p
	cp.IsAvailable = true
	cp.Version++
	cp.Audit.Touch(actor, time.Now())
	t.properties[id] = &cp

	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}

	t.done = true
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := t.store.CommitErr; err != nil {
		t.store.CommitErr = nil
		return err
	}

	for id, p := range t.properties {
		t.store.properties[id] = p
	}

	for id, b := range t.bookings {
		t.store.bookings[id] = b
	}

	t.store.order = append(t.store.order, t.created...)

	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}

	t.done = true
	t.store.txMu.Unlock()

	return nil
}
