package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/revstay/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "RevStay", cfg.App.Name)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, int64(100000*100), cfg.MaxAmountMinor())
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.False(t, cfg.Payment.Mock)
	assert.Equal(t, 30*time.Second, cfg.Notify.SendTimeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "bookings")
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")
	t.Setenv("PAYMENT_MAX_AMOUNT", "500")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("NOTIFY_SEND_TIMEOUT", "5s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Payment.Mock)
	assert.Equal(t, int64(50000), cfg.MaxAmountMinor())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Auth.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, "postgres://postgres:@db.internal:5432/bookings?sslmode=disable", cfg.ConnectionString())
}
