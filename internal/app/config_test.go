package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{
		EnvPrefix: "PIZZA",
		SkipFlags: true,
		SkipFiles: true,
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := testLoad(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "https://react-fast-pizza-api.onrender.com/api", cfg.Restaurant.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Restaurant.Timeout)
	assert.Equal(t, "pizza.orders", cfg.Kafka.Topic)
	assert.Equal(t, 2*time.Second, cfg.Kafka.PublishTimeout)
	assert.Equal(t, "pizza_session", cfg.Session.CookieName)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PIZZA_ADDR", "127.0.0.1:9000")
	t.Setenv("PIZZA_KAFKA_BROKERS", "kafka:9092")
	t.Setenv("PIZZA_RATE_LIMIT_MAX", "5")

	cfg, err := testLoad(t)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "kafka:9092", cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.RateLimit.Max)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://pizza@db/pizza")
	t.Setenv("PORT", "3000")

	cfg, err := testLoad(t)
	require.NoError(t, err)

	assert.Equal(t, "postgres://pizza@db/pizza", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Restaurant: RestaurantConfig{BaseURL: "https://api.example/api"},
			Geocoding: GeocodingConfig{
				ReverseURL:  "https://geo.example/reverse",
				IPLocateURL: "http://ip.example/json",
			},
			Kafka:     KafkaConfig{Topic: "orders"},
			RateLimit: RateLimitConfig{Max: 10, Window: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	for _, tt := range []struct {
		name   string
		mutate func(c *Config)
	}{
		{"RelativeRestaurantURL", func(c *Config) { c.Restaurant.BaseURL = "/api" }},
		{"EmptyReverseURL", func(c *Config) { c.Geocoding.ReverseURL = "" }},
		{"NegativeRateLimit", func(c *Config) { c.RateLimit.Max = -1 }},
		{"ZeroWindow", func(c *Config) { c.RateLimit.Window = 0 }},
		{"BrokersWithoutTopic", func(c *Config) { c.Kafka.Brokers = "k:9092"; c.Kafka.Topic = "" }},
		{"NegativePublishTimeout", func(c *Config) { c.Kafka.PublishTimeout = -time.Second }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
