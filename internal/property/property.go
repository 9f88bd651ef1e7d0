package property

import (
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/audit"
)

var ErrNotFound = apperr.New(apperr.ErrNotFound, "property not found")

// Property is a listing. Only the fields the booking engine relies on are
// modelled in full; listing content stays with the catalogue.
type Property struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	Title        string
	Description  string
	PropertyType string
	Location     string
	Price        *int64 // Minor units; nil when the seller has not priced it
	IsAvailable  bool
	Version      int64
	Audit        audit.Metadata

	Seller *Seller // Loaded via JOIN
}

// Seller is the subset of the owning user that bookings need.
type Seller struct {
	Username string
	FullName string
	Email    string
}

// Priced reports whether the listing has a usable price.
func (p *Property) Priced() bool {
	return p.Price != nil && *p.Price > 0
}
