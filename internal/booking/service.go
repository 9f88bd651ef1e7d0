package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/audit"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	"github.com/MrJamesThe3rd/revstay/internal/property"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=booking
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*property.Property, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*Booking, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Booking, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Booking, error)
}

// Tx is one unit of work over bookings and the availability of their
// properties. Nothing it writes is visible until Commit.
type Tx interface {
	LockProperty(ctx context.Context, id uuid.UUID) (*property.Property, error)
	LockBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	CreateBooking(ctx context.Context, b *Booking) error
	UpdateBooking(ctx context.Context, b *Booking) error
	// ClaimProperty marks the property unavailable if it is still available
	// at version. It fails with ErrPropertyUnavailable otherwise.
	ClaimProperty(ctx context.Context, id uuid.UUID, version int64, actor string) error
	ReleaseProperty(ctx context.Context, id uuid.UUID, actor string) error
	Commit() error
	Rollback() error
}

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (*payment.Order, error)
	VerifyPayment(orderID, paymentID, signature string) bool
}

type Notifier interface {
	Enqueue(msg notify.Message)
}

type Service struct {
	repo     Repository
	users    UserFinder
	gateway  Gateway
	notifier Notifier
	logger   *zap.Logger

	currency string
	now      func() time.Time
}

type Option func(*Service)

// WithCurrency sets the ISO code orders are opened in. Defaults to INR.
func WithCurrency(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.currency = code
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, users UserFinder, gateway Gateway, notifier Notifier, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		currency: "INR",
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	BookingDate *time.Time
}

// PaymentProof is what the checkout hands back after a payment.
type PaymentProof struct {
	PaymentID string
	Signature string
}

func (p PaymentProof) complete() bool {
	return p.PaymentID != "" && p.Signature != ""
}

// Create books an available property for buyerUsername and opens a gateway
// order for its price.
func (s *Service) Create(ctx context.Context, buyerUsername string, propertyID uuid.UUID, params CreateParams) (*Booking, error) {
	buyer, err := s.users.FindByUsername(ctx, buyerUsername)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback()

	prop, err := tx.LockProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if !prop.IsAvailable {
		return nil, ErrPropertyUnavailable
	}

	if !prop.Priced() {
		return nil, ErrInvalidPrice
	}

	order, err := s.gateway.CreateOrder(ctx, *prop.Price, s.currency)
	if err != nil {
		return nil, gatewayError(err)
	}

	now := s.now()

	b := &Booking{
		ID:            uuid.New(),
		PropertyID:    prop.ID,
		BuyerID:       buyer.ID,
		Status:        StatusPending,
		Amount:        *prop.Price,
		Currency:      s.currency,
		TransactionID: order.ID,
		BookingDate:   now,
		Audit:         audit.New(buyerUsername, now),
		Property:      propertyRef(prop),
		Buyer:         &Party{Username: buyer.Username, FullName: buyer.FullName, Email: buyer.Email},
	}

	if params.BookingDate != nil {
		b.BookingDate = *params.BookingDate
	}

	if err := s.persistNew(ctx, tx, b, prop); err != nil {
		s.logger.Warn("booking rolled back after gateway order was created",
			zap.String("order_id", order.ID),
			zap.String("property_id", prop.ID.String()),
			zap.Error(err),
		)

		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("property_id", prop.ID.String()),
		zap.String("order_id", order.ID),
		zap.Int64("amount", b.Amount),
	)

	s.notifyCreated(b)

	return b, nil
}

func (s *Service) persistNew(ctx context.Context, tx Tx, b *Booking, prop *property.Property) error {
	if err := tx.CreateBooking(ctx, b); err != nil {
		return err
	}

	if err := tx.ClaimProperty(ctx, prop.ID, prop.Version, b.Audit.CreatedBy); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	return nil
}

// UpdateStatus moves a booking along its lifecycle on behalf of either
// party. Confirming with a payment proof verifies it against the order
// the booking was opened with.
func (s *Service) UpdateStatus(ctx context.Context, actingUsername string, id uuid.UUID, statusName string, proof PaymentProof) (*Booking, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback()

	b, err := tx.LockBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !b.involves(actingUsername) {
		return nil, ErrNotParty
	}

	next, err := ParseStatus(statusName)
	if err != nil {
		return nil, err
	}

	if !b.Status.CanTransitionTo(next) {
		return nil, transitionError(b.Status, next)
	}

	if next == StatusConfirmed && proof.complete() {
		if !s.gateway.VerifyPayment(b.TransactionID, proof.PaymentID, proof.Signature) {
			s.logger.Warn("payment verification failed",
				zap.String("booking_id", b.ID.String()),
				zap.String("order_id", b.TransactionID),
			)

			return nil, ErrPaymentVerification
		}

		b.PaymentID = new(proof.PaymentID)
		b.PaymentSignature = new(proof.Signature)
	}

	prev := b.Status
	if err := s.apply(ctx, tx, b, next, actingUsername); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", b.ID.String()),
		zap.String("from", string(prev)),
		zap.String("status", string(next)),
		zap.String("by", actingUsername),
	)

	switch next {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		s.notifyStatus(b)
	case StatusPending:
	}

	return b, nil
}

// Cancel is the buyer's own way out of a booking.
func (s *Service) Cancel(ctx context.Context, actingUsername string, id uuid.UUID) (*Booking, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	b, err := tx.LockBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if actingUsername == "" || b.buyerUsername() != actingUsername {
		return nil, ErrNotBuyer
	}

	switch b.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusCompleted:
		return nil, ErrCancelCompleted
	case StatusPending, StatusConfirmed:
	}

	if err := s.apply(ctx, tx, b, StatusCancelled, actingUsername); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", b.ID.String()),
		zap.String("property_id", b.PropertyID.String()),
	)

	s.notifyStatus(b)

	return b, nil
}

// apply writes the new status and, for cancellations, frees the property in
// the same transaction.
func (s *Service) apply(ctx context.Context, tx Tx, b *Booking, next Status, actor string) error {
	b.Status = next
	b.Audit.Touch(actor, s.now())

	if err := tx.UpdateBooking(ctx, b); err != nil {
		return err
	}

	if next == StatusCancelled {
		if err := tx.ReleaseProperty(ctx, b.PropertyID, actor); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, actingUsername string, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !b.involves(actingUsername) {
		return nil, ErrNotParty
	}

	return b, nil
}

func (s *Service) BuyerBookings(ctx context.Context, username string) ([]*Booking, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.repo.ListByBuyer(ctx, u.ID)
}

func (s *Service) SellerBookings(ctx context.Context, username string) ([]*Booking, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.repo.ListBySeller(ctx, u.ID)
}

func (s *Service) SellerSummary(ctx context.Context, username string) (SellerSummary, error) {
	bookings, err := s.SellerBookings(ctx, username)
	if err != nil {
		return SellerSummary{}, err
	}

	return summarize(bookings), nil
}

// PropertyBookings lists the booking history of one property to its seller.
func (s *Service) PropertyBookings(ctx context.Context, actingUsername string, propertyID uuid.UUID) ([]*Booking, error) {
	prop, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if prop.Seller == nil || actingUsername == "" || prop.Seller.Username != actingUsername {
		return nil, ErrNotPropertySeller
	}

	return s.repo.ListByProperty(ctx, propertyID)
}

func (s *Service) notifyCreated(b *Booking) {
	title := b.Property.Title
	amount := money.FormatMinor(b.Amount)

	s.notifier.Enqueue(notify.Message{
		Template:  notify.TemplateBookingConfirmation,
		Recipient: b.Buyer.Email,
		Variables: map[string]string{
			"propertyTitle": title,
			"amount":        amount,
			"currency":      b.Currency,
		},
	})

	s.notifier.Enqueue(notify.Message{
		Template:  notify.TemplateBookingNotification,
		Recipient: b.Property.Seller.Email,
		Variables: map[string]string{
			"propertyTitle": title,
			"buyerName":     b.Buyer.FullName,
			"amount":        amount,
			"currency":      b.Currency,
		},
	})
}

func (s *Service) notifyStatus(b *Booking) {
	if b.Property == nil || b.Buyer == nil {
		s.logger.Warn("status notification skipped, booking parties not loaded",
			zap.String("booking_id", b.ID.String()))

		return
	}

	vars := map[string]string{
		"propertyTitle": b.Property.Title,
		"status":        string(b.Status),
	}

	s.notifier.Enqueue(notify.Message{
		Template:  notify.TemplateStatusUpdateBuyer,
		Recipient: b.Buyer.Email,
		Variables: vars,
	})

	s.notifier.Enqueue(notify.Message{
		Template:  notify.TemplateStatusUpdateSeller,
		Recipient: b.Property.Seller.Email,
		Variables: vars,
	})
}

func propertyRef(p *property.Property) *PropertyRef {
	ref := &PropertyRef{Title: p.Title, Location: p.Location, SellerID: p.SellerID}
	if p.Seller != nil {
		ref.Seller = Party{Username: p.Seller.Username, FullName: p.Seller.FullName, Email: p.Seller.Email}
	}

	return ref
}

// gatewayError keeps classified gateway failures as they are and files
// everything else under ErrGateway.
func gatewayError(err error) error {
	if apperr.Kind(err) != nil {
		return err
	}

	return fmt.Errorf("%w: %v", apperr.ErrGateway, err)
}
