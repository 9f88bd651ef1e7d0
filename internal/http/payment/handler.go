package payment

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/revstay/internal/auth"
	"github.com/MrJamesThe3rd/revstay/internal/http/respond"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (*payment.Order, error)
	VerifyPayment(orderID, paymentID, signature string) bool
}

type Handler struct {
	gateway  Gateway
	keyID    string
	currency string
	now      func() time.Time
}

// NewHandler serves checkout helpers. keyID is handed to the browser
// checkout alongside each order.
func NewHandler(gateway Gateway, keyID, currency string) *Handler {
	return &Handler{gateway: gateway, keyID: keyID, currency: currency, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireRole(user.RoleBuyer))

	r.Post("/create-order", h.createOrder)
	r.Post("/verify", h.verify)
	r.Post("/test-payment", h.testPayment)
}

type orderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	KeyID    string `json:"key_id,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	amount, err := money.ParseMajor(r.FormValue("amount"))
	if err != nil {
		respond.Status(w, http.StatusBadRequest, "invalid amount")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(r.FormValue("currency")))
	if currency == "" {
		currency = h.currency
	}

	order, err := h.gateway.CreateOrder(r.Context(), amount, currency)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, orderResponse{
		OrderID:  order.ID,
		Amount:   money.FormatMinor(order.Amount),
		Currency: order.Currency,
		Receipt:  order.Receipt,
		KeyID:    h.keyID,
	})
}

type verifyResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	orderID, paymentID, signature := r.FormValue("order_id"), r.FormValue("payment_id"), r.FormValue("signature")
	if orderID == "" || paymentID == "" || signature == "" {
		respond.Status(w, http.StatusBadRequest, "order_id, payment_id and signature are required")
		return
	}

	if !h.gateway.VerifyPayment(orderID, paymentID, signature) {
		respond.JSON(w, http.StatusOK, verifyResponse{Status: "error", Message: "Payment verification failed"})
		return
	}

	respond.JSON(w, http.StatusOK, verifyResponse{Status: "success", Message: "Payment verified successfully"})
}

// testPayment fabricates a sandbox payment for orderID so flows can be
// exercised without the hosted checkout.
func (h *Handler) testPayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.FormValue("order_id")
	if orderID == "" {
		respond.Status(w, http.StatusBadRequest, "order_id is required")
		return
	}

	paymentID, signature := payment.NewTestPayment(h.now())

	if !h.gateway.VerifyPayment(orderID, paymentID, signature) {
		respond.JSON(w, http.StatusOK, verifyResponse{Status: "error", Message: "Test payment verification failed"})
		return
	}

	respond.JSON(w, http.StatusOK, verifyResponse{
		Status:    "success",
		Message:   "Test payment verified successfully",
		PaymentID: paymentID,
		Signature: signature,
	})
}
