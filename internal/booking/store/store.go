package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/property"
)

const (
	uniqueViolation = "23505"

	activePropertyIndex = "bookings_active_property_idx"
	transactionIDKey    = "bookings_transaction_id_key"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectBookingColumns = `
	b.id, b.property_id, b.buyer_id, b.status, b.amount, b.currency, b.transaction_id,
	b.payment_id, b.payment_signature, b.booking_date,
	b.created_by, b.created_at, b.last_modified_by, b.last_modified_at,
	p.title, p.location, p.seller_id,
	s.username, s.full_name, s.email,
	u.username, u.full_name, u.email
`

const bookingJoins = `
	FROM bookings b
	JOIN properties p ON p.id = b.property_id
	JOIN users s ON s.id = p.seller_id
	JOIN users u ON u.id = b.buyer_id
`

// scanBooking expects the columns of selectBookingColumns in order.
func scanBooking(s scanner) (*booking.Booking, error) {
	var (
		b          booking.Booking
		ref        booking.PropertyRef
		buyer      booking.Party
		status     string
		modifiedBy sql.NullString
	)

	if err := s.Scan(
		&b.ID, &b.PropertyID, &b.BuyerID, &status, &b.Amount, &b.Currency, &b.TransactionID,
		&b.PaymentID, &b.PaymentSignature, &b.BookingDate,
		&b.Audit.CreatedBy, &b.Audit.CreatedAt, &modifiedBy, &b.Audit.LastModifiedAt,
		&ref.Title, &ref.Location, &ref.SellerID,
		&ref.Seller.Username, &ref.Seller.FullName, &ref.Seller.Email,
		&buyer.Username, &buyer.FullName, &buyer.Email,
	); err != nil {
		return nil, err
	}

	b.Status = booking.Status(status)
	b.Audit.LastModifiedBy = modifiedBy.String
	b.Property = &ref
	b.Buyer = &buyer

	return &b, nil
}

const selectPropertyColumns = `
	p.id, p.seller_id, p.title, p.description, p.property_type, p.location,
	p.price, p.is_available, p.version,
	p.created_by, p.created_at, p.last_modified_by, p.last_modified_at,
	u.username, u.full_name, u.email
`

func scanProperty(s scanner) (*property.Property, error) {
	var (
		p          property.Property
		seller     property.Seller
		modifiedBy sql.NullString
	)

	if err := s.Scan(
		&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PropertyType, &p.Location,
		&p.Price, &p.IsAvailable, &p.Version,
		&p.Audit.CreatedBy, &p.Audit.CreatedAt, &modifiedBy, &p.Audit.LastModifiedAt,
		&seller.Username, &seller.FullName, &seller.Email,
	); err != nil {
		return nil, err
	}

	p.Audit.LastModifiedBy = modifiedBy.String
	p.Seller = &seller

	return &p, nil
}

func getBooking(ctx context.Context, q querier, query string, id uuid.UUID) (*booking.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}

		return nil, fmt.Errorf("getting booking: %w", err)
	}

	return b, nil
}

func getProperty(ctx context.Context, q querier, query string, id uuid.UUID) (*property.Property, error) {
	p, err := scanProperty(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, property.ErrNotFound
		}

		return nil, fmt.Errorf("getting property: %w", err)
	}

	return p, nil
}

func listBookings(ctx context.Context, q querier, where string, arg any) ([]*booking.Booking, error) {
	query := `SELECT ` + selectBookingColumns + bookingJoins + `WHERE ` + where + `
		ORDER BY b.created_at ASC, b.id ASC`

	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}

		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating booking rows: %w", err)
	}

	return bookings, nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return getBooking(ctx, s.db, `SELECT `+selectBookingColumns+bookingJoins+`WHERE b.id = $1`, id)
}

func (s *Store) GetProperty(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	query := `SELECT ` + selectPropertyColumns + `
		FROM properties p
		JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1`

	return getProperty(ctx, s.db, query, id)
}

func (s *Store) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*booking.Booking, error) {
	return listBookings(ctx, s.db, `b.buyer_id = $1`, buyerID)
}

func (s *Store) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*booking.Booking, error) {
	return listBookings(ctx, s.db, `p.seller_id = $1`, sellerID)
}

func (s *Store) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*booking.Booking, error) {
	return listBookings(ctx, s.db, `b.property_id = $1`, propertyID)
}

type bookingTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (booking.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning booking tx: %w", err)
	}

	return &bookingTx{tx: dbTx}, nil
}

func (btx *bookingTx) Commit() error   { return btx.tx.Commit() }
func (btx *bookingTx) Rollback() error { return btx.tx.Rollback() }

// LockProperty holds the property row until the transaction ends, so
// concurrent bookings of it queue up behind each other.
func (btx *bookingTx) LockProperty(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	query := `SELECT ` + selectPropertyColumns + `
		FROM properties p
		JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1
		FOR UPDATE OF p`

	return getProperty(ctx, btx.tx, query, id)
}

func (btx *bookingTx) LockBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return getBooking(ctx, btx.tx, `SELECT `+selectBookingColumns+bookingJoins+`WHERE b.id = $1 FOR UPDATE OF b`, id)
}

func (btx *bookingTx) CreateBooking(ctx context.Context, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (
			id, property_id, buyer_id, status, amount, currency, transaction_id,
			payment_id, payment_signature, booking_date, created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := btx.tx.ExecContext(ctx, query,
		b.ID,
		b.PropertyID,
		b.BuyerID,
		b.Status,
		b.Amount,
		b.Currency,
		b.TransactionID,
		b.PaymentID,
		b.PaymentSignature,
		b.BookingDate,
		b.Audit.CreatedBy,
		b.Audit.CreatedAt,
	)
	if err != nil {
		if conflict := classifyConflict(err); conflict != nil {
			return conflict
		}

		return fmt.Errorf("creating booking: %w", err)
	}

	return nil
}

// UpdateBooking writes the mutable fields only.
func (btx *bookingTx) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_id = $2, payment_signature = $3,
			last_modified_by = $4, last_modified_at = $5
		WHERE id = $6
	`

	res, err := btx.tx.ExecContext(ctx, query,
		b.Status,
		b.PaymentID,
		b.PaymentSignature,
		b.Audit.LastModifiedBy,
		b.Audit.LastModifiedAt,
		b.ID,
	)
	if err != nil {
		if conflict := classifyConflict(err); conflict != nil {
			return conflict
		}

		return fmt.Errorf("updating booking: %w", err)
	}

	return expectRow(res, booking.ErrBookingNotFound)
}

func (btx *bookingTx) ClaimProperty(ctx context.Context, id uuid.UUID, version int64, actor string) error {
	query := `
		UPDATE properties
		SET is_available = FALSE, version = version + 1,
			last_modified_by = $3, last_modified_at = NOW()
		WHERE id = $1 AND is_available AND version = $2
	`

	res, err := btx.tx.ExecContext(ctx, query, id, version, actor)
	if err != nil {
		return fmt.Errorf("claiming property: %w", err)
	}

	return expectRow(res, booking.ErrPropertyUnavailable)
}

func (btx *bookingTx) ReleaseProperty(ctx context.Context, id uuid.UUID, actor string) error {
	query := `
		UPDATE properties
		SET is_available = TRUE, version = version + 1,
			last_modified_by = $2, last_modified_at = NOW()
		WHERE id = $1
	`

	res, err := btx.tx.ExecContext(ctx, query, id, actor)
	if err != nil {
		return fmt.Errorf("releasing property: %w", err)
	}

	return expectRow(res, property.ErrNotFound)
}

func expectRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return none
	}

	return nil
}

// classifyConflict maps unique violations on booking constraints to domain
// errors and returns nil for anything else.
func classifyConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case activePropertyIndex:
		return booking.ErrPropertyUnavailable
	case transactionIDKey:
		return booking.ErrDuplicateOrder
	default:
		return nil
	}
}
