package booking

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/audit"
)

var (
	ErrBookingNotFound     = apperr.New(apperr.ErrNotFound, "booking not found")
	ErrPropertyUnavailable = apperr.New(apperr.ErrInvalidState, "property is not available for booking")
	ErrInvalidPrice        = apperr.New(apperr.ErrInvalidState, "invalid property price")
	ErrAlreadyCancelled    = apperr.New(apperr.ErrInvalidState, "booking is already cancelled")
	ErrCancelCompleted     = apperr.New(apperr.ErrInvalidState, "cannot cancel a completed booking")
	ErrPaymentVerification = apperr.New(apperr.ErrInvalidState, "payment verification failed")
	ErrDuplicateOrder      = apperr.New(apperr.ErrInvalidState, "payment order is already linked to a booking")
	ErrNotParty            = apperr.New(apperr.ErrAccessDenied, "you don't have permission to access this booking")
	ErrNotBuyer            = apperr.New(apperr.ErrAccessDenied, "only the buyer can cancel this booking")
	ErrNotPropertySeller   = apperr.New(apperr.ErrAccessDenied, "only the seller can view bookings of this property")
)

// Status represents the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// transitions lists every allowed edge. Statuses without an entry are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseStatus is case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	default:
		return "", apperr.Newf(apperr.ErrInvalidArgument, "invalid booking status: %s", s)
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Next lists the statuses s may move to, in table order.
func (s Status) Next() []Status {
	return slices.Clone(transitions[s])
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active statuses hold the property.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func transitionError(from, to Status) error {
	return apperr.Newf(apperr.ErrInvalidState, "cannot change booking status from %s to %s", from, to)
}

// Booking is one buyer's claim on one property.
type Booking struct {
	ID               uuid.UUID
	PropertyID       uuid.UUID
	BuyerID          uuid.UUID
	Status           Status
	Amount           int64 // Minor units, copied from the property price at creation
	Currency         string
	TransactionID    string // Gateway order id
	PaymentID        *string
	PaymentSignature *string
	BookingDate      time.Time
	Audit            audit.Metadata

	Property *PropertyRef // Loaded via JOIN
	Buyer    *Party       // Loaded via JOIN
}

// PropertyRef is the property summary carried by a booking.
type PropertyRef struct {
	Title    string
	Location string
	SellerID uuid.UUID
	Seller   Party
}

// Party is a user as seen from a booking.
type Party struct {
	Username string
	FullName string
	Email    string
}

func (b *Booking) buyerUsername() string {
	if b.Buyer == nil {
		return ""
	}

	return b.Buyer.Username
}

func (b *Booking) sellerUsername() string {
	if b.Property == nil {
		return ""
	}

	return b.Property.Seller.Username
}

// involves reports whether username is the buyer or the property's seller.
func (b *Booking) involves(username string) bool {
	if username == "" {
		return false
	}

	return b.buyerUsername() == username || b.sellerUsername() == username
}

// SellerSummary aggregates bookings across a seller's properties.
type SellerSummary struct {
	Total     int
	Pending   int
	Confirmed int
	Cancelled int
	Completed int
	Revenue   int64 // Minor units of confirmed and completed bookings
}

func summarize(bookings []*Booking) SellerSummary {
	var sum SellerSummary

	for _, b := range bookings {
		sum.Total++

		switch b.Status {
		case StatusPending:
			sum.Pending++
		case StatusConfirmed:
			sum.Confirmed++
			sum.Revenue += b.Amount
		case StatusCompleted:
			sum.Completed++
			sum.Revenue += b.Amount
		case StatusCancelled:
			sum.Cancelled++
		}
	}

	return sum
}
