package booking

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/auth"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/http/respond"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes expects an authenticated principal on every request.
func (h *Handler) Routes(r chi.Router) {
	var (
		buyer   = auth.RequireRole(user.RoleBuyer)
		seller  = auth.RequireRole(user.RoleSeller)
		parties = auth.RequireRole(user.RoleBuyer, user.RoleSeller)
	)

	r.With(buyer).Post("/property/{propertyID}", h.create)
	r.With(seller).Get("/property/{propertyID}", h.propertyBookings)
	r.With(buyer).Get("/my", h.mine)
	r.With(seller).Get("/seller", h.sold)
	r.With(seller).Get("/seller/summary", h.summary)
	r.With(parties).Get("/{id}", h.get)
	r.With(parties).Put("/{id}/status", h.updateStatus)
	r.With(buyer).Put("/{id}/cancel", h.cancel)
}

type createBookingRequest struct {
	BookingDate string `json:"booking_date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := parseID(w, r, "propertyID")
	if !ok {
		return
	}

	var req createBookingRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	var params booking.CreateParams

	if req.BookingDate != "" {
		date, err := parseDate(req.BookingDate)
		if err != nil {
			respond.Status(w, http.StatusBadRequest, "invalid booking_date")
			return
		}

		params.BookingDate = &date
	}

	b, err := h.svc.Create(r.Context(), principal(r).Username, propertyID, params)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.BuyerBookings(r.Context(), principal(r).Username)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(bookings))
}

func (h *Handler) sold(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.SellerBookings(r.Context(), principal(r).Username)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(bookings))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.SellerSummary(r.Context(), principal(r).Username)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (h *Handler) propertyBookings(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := parseID(w, r, "propertyID")
	if !ok {
		return
	}

	bookings, err := h.svc.PropertyBookings(r.Context(), principal(r).Username, propertyID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(bookings))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.svc.Get(r.Context(), principal(r).Username, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(b))
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// updateStatus reads the JSON body, falling back to query parameters for
// callers that send none.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	q := r.URL.Query()
	if req.Status == "" {
		req.Status = q.Get("status")
	}

	if req.PaymentID == "" {
		req.PaymentID = q.Get("payment_id")
	}

	if req.Signature == "" {
		req.Signature = q.Get("signature")
	}

	if req.Status == "" {
		respond.Status(w, http.StatusBadRequest, "status is required")
		return
	}

	b, err := h.svc.UpdateStatus(r.Context(), principal(r).Username, id, req.Status, booking.PaymentProof{
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.svc.Cancel(r.Context(), principal(r).Username, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(b))
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		respond.Status(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}

	return id, true
}

// decodeOptional decodes a JSON body into v. An empty body is fine.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	respond.Status(w, http.StatusBadRequest, "invalid request body")

	return false
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, s)
}
