package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/money"
)

type bookingResponse struct {
	ID             uuid.UUID       `json:"id"`
	Status         booking.Status  `json:"status"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	TransactionID  string          `json:"transaction_id"`
	PaymentID      *string         `json:"payment_id,omitempty"`
	BookingDate    time.Time       `json:"booking_date"`
	Property       propertySummary `json:"property"`
	Buyer          partySummary    `json:"buyer"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	LastModifiedBy string          `json:"last_modified_by,omitempty"`
	LastModifiedAt *time.Time      `json:"last_modified_at,omitempty"`
}

type propertySummary struct {
	ID       uuid.UUID    `json:"id"`
	Title    string       `json:"title"`
	Location string       `json:"location"`
	Seller   partySummary `json:"seller"`
}

type partySummary struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func toParty(p booking.Party) partySummary {
	return partySummary{Username: p.Username, FullName: p.FullName, Email: p.Email}
}

func toResponse(b *booking.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		Status:         b.Status,
		Amount:         money.FormatMinor(b.Amount),
		Currency:       b.Currency,
		TransactionID:  b.TransactionID,
		PaymentID:      b.PaymentID,
		BookingDate:    b.BookingDate,
		Property:       propertySummary{ID: b.PropertyID},
		CreatedBy:      b.Audit.CreatedBy,
		CreatedAt:      b.Audit.CreatedAt,
		LastModifiedBy: b.Audit.LastModifiedBy,
		LastModifiedAt: b.Audit.LastModifiedAt,
	}

	if b.Property != nil {
		resp.Property.Title = b.Property.Title
		resp.Property.Location = b.Property.Location
		resp.Property.Seller = toParty(b.Property.Seller)
	}

	if b.Buyer != nil {
		resp.Buyer = toParty(*b.Buyer)
	}

	return resp
}

func toResponseList(bookings []*booking.Booking) []bookingResponse {
	resp := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toResponse(b)
	}

	return resp
}

type summaryResponse struct {
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Confirmed int    `json:"confirmed"`
	Cancelled int    `json:"cancelled"`
	Completed int    `json:"completed"`
	Revenue   string `json:"revenue"`
}

func toSummaryResponse(s booking.SellerSummary) summaryResponse {
	return summaryResponse{
		Total:     s.Total,
		Pending:   s.Pending,
		Confirmed: s.Confirmed,
		Cancelled: s.Cancelled,
		Completed: s.Completed,
		Revenue:   money.FormatMinor(s.Revenue),
	}
}
