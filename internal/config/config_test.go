package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "agrirent.db", cfg.DatabaseURL)
	assert.Equal(t, 50.0, cfg.NearbyDefaultRadiusKm)
	assert.Equal(t, 500.0, cfg.NearbyMaxRadiusKm)
	assert.Equal(t, 100, cfg.NearbyMaxResults)
	assert.Equal(t, 10*time.Second, cfg.BookingTimeout)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, "rental.slot_booked", cfg.BookingEventsQueue)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.IsProdLike())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("NEARBY_DEFAULT_RADIUS_KM", "25")
	t.Setenv("BOOKING_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 25.0, cfg.NearbyDefaultRadiusKm)
	assert.Equal(t, 3*time.Second, cfg.BookingTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"BOOKING_TIMEOUT":      "soon",
		"NEARBY_MAX_RESULTS":   "0",
		"NEARBY_MAX_RADIUS_KM": "10",
		"LOG_FORMAT":           "xml",
		"WS_SEND_BUFFER":       "-1",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
