package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/money"
)

// TestPaymentPrefix marks sandbox payment ids that skip signature checks.
const TestPaymentPrefix = "pay_test_"

var (
	ErrInvalidAmount      = apperr.New(apperr.ErrInvalidArgument, "amount must be greater than 0")
	ErrMissingCredentials = errors.New("missing payment gateway key id or secret")
)

// Order is a gateway order a booking is correlated with.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	MaxAmount int64 // Minor units
	Timeout   time.Duration
	Mock      bool
}

// Client talks to a Razorpay-compatible orders API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if !cfg.Mock && (cfg.KeyID == "" || cfg.KeySecret == "") {
		return nil, ErrMissingCredentials
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.Mock {
		logger.Info("payment gateway mock mode enabled")
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *Client) validateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if c.cfg.MaxAmount > 0 && amount > c.cfg.MaxAmount {
		return apperr.Newf(apperr.ErrInvalidArgument,
			"amount exceeds maximum allowed amount of %s", money.FormatMinor(c.cfg.MaxAmount))
	}

	return nil
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order for amount minor units.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency string) (*Order, error) {
	if err := c.validateAmount(amount); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", c.now().UnixMilli())

	if c.cfg.Mock {
		id := "order_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		c.logger.Debug("mock order created", zap.String("order_id", id), zap.Int64("amount", amount))

		return &Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}, nil
	}

	body, err := json.Marshal(orderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("encoding order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: order request timed out after %s", apperr.ErrGateway, c.cfg.Timeout)
		}

		return nil, fmt.Errorf("%w: order request failed: %v", apperr.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading order response: %v", apperr.ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			return nil, fmt.Errorf("%w: %s", apperr.ErrGateway, e.Error.Description)
		}

		return nil, fmt.Errorf("%w: unexpected status code %d", apperr.ErrGateway, resp.StatusCode)
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.ID == "" {
		return nil, fmt.Errorf("%w: malformed order response", apperr.ErrGateway)
	}

	c.logger.Info("payment order created",
		zap.String("order_id", out.ID),
		zap.Int64("amount", out.Amount),
		zap.String("currency", out.Currency),
	)

	return &Order{ID: out.ID, Amount: out.Amount, Currency: out.Currency, Receipt: out.Receipt}, nil
}

// VerifyPayment checks the signature the checkout returned for orderID.
// Sandbox payment ids always pass. It never fails loudly: anything odd is false.
func (c *Client) VerifyPayment(orderID, paymentID, signature string) bool {
	if strings.HasPrefix(paymentID, TestPaymentPrefix) {
		c.logger.Info("test payment verification", zap.String("order_id", orderID))
		return true
	}

	if c.cfg.KeySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		c.logger.Warn("malformed payment signature", zap.String("order_id", orderID), zap.Error(err))
		return false
	}

	return hmac.Equal(got, mac(c.cfg.KeySecret, orderID, paymentID))
}

// Sign returns the signature the gateway issues for a paid order.
func Sign(secret, orderID, paymentID string) string {
	return hex.EncodeToString(mac(secret, orderID, paymentID))
}

func mac(secret, orderID, paymentID string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))

	return h.Sum(nil)
}

// NewTestPayment returns a sandbox payment id and signature pair.
func NewTestPayment(now time.Time) (paymentID, signature string) {
	ms := now.UnixMilli()
	return fmt.Sprintf("%s%d", TestPaymentPrefix, ms), fmt.Sprintf("test_signature_%d", ms)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
