package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
)

const secret = "rzp_secret"

func newClient(t *testing.T, baseURL string, mutate ...func(*payment.Config)) *payment.Client {
	t.Helper()

	cfg := payment.Config{
		KeyID:     "rzp_key",
		KeySecret: secret,
		BaseURL:   baseURL,
		MaxAmount: 100000 * 100,
		Timeout:   2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := payment.NewClient(cfg, zap.NewNop())
	require.NoError(t, err)

	return c
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := payment.NewClient(payment.Config{}, zap.NewNop())
	assert.ErrorIs(t, err, payment.ErrMissingCredentials)

	_, err = payment.NewClient(payment.Config{Mock: true}, zap.NewNop())
	assert.NoError(t, err)
}

func TestClient_CreateOrder(t *testing.T) {
	var got struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.URL.Path != "/orders" || !ok || user != "rzp_key" || pass != secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":500000,"currency":"INR","receipt":"` + got.Receipt + `","status":"created"}`))
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)

	order, err := c.CreateOrder(context.Background(), 500000, "INR")
	require.NoError(t, err)

	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(500000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, int64(500000), got.Amount)
	assert.True(t, strings.HasPrefix(got.Receipt, "receipt_"))
}

func TestClient_CreateOrder_AmountValidation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called for invalid amounts")
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)

	tests := []struct {
		name   string
		amount int64
	}{
		{name: "Zero", amount: 0},
		{name: "Negative", amount: -100},
		{name: "AboveCeiling", amount: 100000*100 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateOrder(context.Background(), tt.amount, "INR")
			assert.True(t, errors.Is(err, apperr.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestClient_CreateOrder_AtCeiling(t *testing.T) {
	c := newClient(t, "", func(cfg *payment.Config) { cfg.Mock = true })

	order, err := c.CreateOrder(context.Background(), 100000*100, "INR")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.ID, "order_test_"))
}

func TestClient_CreateOrder_GatewayFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "ErrorBody",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
			},
			wantMsg: "The amount must be atleast INR 1.00",
		},
		{
			name: "ServerError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantMsg: "unexpected status code 503",
		},
		{
			name: "MalformedBody",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantMsg: "malformed order response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := newClient(t, ts.URL).CreateOrder(context.Background(), 1000, "INR")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrGateway))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_CreateOrder_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := newClient(t, ts.URL, func(cfg *payment.Config) { cfg.Timeout = 50 * time.Millisecond })

	_, err := c.CreateOrder(context.Background(), 1000, "INR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrGateway))
	assert.Contains(t, err.Error(), "timed out")
}

func TestClient_VerifyPayment(t *testing.T) {
	c := newClient(t, "")

	valid := payment.Sign(secret, "order_1", "pay_real_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "ValidSignature", orderID: "order_1", paymentID: "pay_real_1", signature: valid, want: true},
		{name: "WrongOrder", orderID: "order_2", paymentID: "pay_real_1", signature: valid, want: false},
		{name: "TamperedSignature", orderID: "order_1", paymentID: "pay_real_1", signature: payment.Sign("other", "order_1", "pay_real_1"), want: false},
		{name: "NotHex", orderID: "order_1", paymentID: "pay_real_1", signature: "zz-not-hex", want: false},
		{name: "EmptySignature", orderID: "order_1", paymentID: "pay_real_1", signature: "", want: false},
		{name: "SandboxAnySignature", orderID: "order_1", paymentID: "pay_test_123", signature: "whatever", want: true},
		{name: "SandboxEmptySignature", orderID: "order_1", paymentID: "pay_test_123", signature: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.VerifyPayment(tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestNewTestPayment(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id, sig := payment.NewTestPayment(now)

	assert.Equal(t, "pay_test_1700000000123", id)
	assert.Equal(t, "test_signature_1700000000123", sig)
	assert.True(t, newClient(t, "").VerifyPayment("order_x", id, sig))
}
