package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config is the service configuration, loaded from PIZZA_ environment
// variables, flags and YAML files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	DatabaseURL string `usage:"PostgreSQL URL; when set orders are stored locally instead of at the restaurant API" flag:"database-url"`
	Restaurant  RestaurantConfig
	Geocoding   GeocodingConfig
	Kafka       KafkaConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RestaurantConfig points at the remote order service.
type RestaurantConfig struct {
	BaseURL string        `default:"https://react-fast-pizza-api.onrender.com/api" usage:"Restaurant API base URL" flag:"restaurant-url"`
	Timeout time.Duration `default:"10s" usage:"Restaurant API request timeout"`
}

// GeocodingConfig points at the position and address lookup services.
type GeocodingConfig struct {
	ReverseURL  string        `default:"https://api.bigdatacloud.net/data/reverse-geocode-client" usage:"Reverse geocoding endpoint"`
	IPLocateURL string        `default:"http://ip-api.com/json" usage:"IP geolocation endpoint"`
	Timeout     time.Duration `default:"5s" usage:"Geocoding request timeout"`
}

// KafkaConfig enables order event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers string `usage:"Comma separated Kafka brokers" flag:"kafka-brokers"`
	Topic   string `default:"pizza.orders" usage:"Order events topic"`

	// PublishTimeout bounds each event write so a broker outage cannot hold
	// up checkout responses.
	PublishTimeout time.Duration `default:"2s" usage:"Timeout for publishing one order event"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string        `default:"pizza_session" usage:"Session cookie name"`
	MaxAge     time.Duration `default:"720h" usage:"Session cookie lifetime"`
	Secure     bool          `default:"false" usage:"Send the session cookie over HTTPS only" flag:"session-secure"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from the environment, YAML config files and
// flags, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "PIZZA",
		Files:     []string{"config.yaml", "/etc/fast-pizza/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps DATABASE_URL and PORT, as set by hosting
// platforms, onto the PIZZA_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"restaurant base URL":   c.Restaurant.BaseURL,
		"reverse geocoding URL": c.Geocoding.ReverseURL,
		"IP geolocation URL":    c.Geocoding.IPLocateURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Errorf("invalid %s %q", name, raw)
		}
	}
	if c.RateLimit.Max < 0 {
		return errors.New("rate limit max must not be negative")
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.Kafka.Brokers != "" && c.Kafka.Topic == "" {
		return errors.New("kafka topic is required when brokers are set")
	}
	if c.Kafka.PublishTimeout < 0 {
		return errors.New("kafka publish timeout must not be negative")
	}
	return nil
}
