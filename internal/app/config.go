package app

import (
	"os"
	"time"
	// Containers often ship without a zoneinfo database.
	_ "time/tzdata"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Snapshot sources.
const (
	SourceBackoffice = "backoffice"
	SourcePostgres   = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (INSIGHTS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Source      string `default:"backoffice" usage:"Snapshot source: backoffice or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (INSIGHTS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Migrate     bool   `default:"true" usage:"Apply the read model schema on start"`
	Backoffice  BackofficeConfig
	Redis       RedisConfig
	Insights    InsightsConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// BackofficeConfig locates the back-office REST API.
type BackofficeConfig struct {
	URL      string        `usage:"Back-office origin serving /api" flag:"backoffice-url"`
	Token    string        `usage:"Bearer token of the back-office session" flag:"backoffice-token"`
	PageSize int           `default:"100" usage:"Records per list page"`
	Timeout  time.Duration `default:"10s" usage:"Timeout of a single page request"`
}

// RedisConfig enables the shared snapshot cache when Addr is set.
type RedisConfig struct {
	Addr     string        `usage:"Redis address; empty disables the snapshot cache" flag:"redis-addr"`
	Password string        `usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database"`
	TTL      time.Duration `default:"1m" usage:"Snapshot cache lifetime"`
}

// InsightsConfig tunes the computed views.
type InsightsConfig struct {
	CommissionRate float64 `default:"0.1" usage:"Commission rate of the earnings view"`
	SellerShare    float64 `default:"0.9" usage:"Seller share of the top sellers ranking"`
	TopN           int     `default:"5" usage:"Size of customer and seller rankings"`
	Timezone       string  `default:"UTC" usage:"IANA time zone of calendar days and months"`
}

// AuthConfig enables the API key guard when APIKeyHashes is not empty.
type AuthConfig struct {
	APIKeyPepper string   `usage:"HMAC pepper for API key hashing (INSIGHTS_AUTH_API_KEY_PEPPER)" flag:"api-key-pepper"`
	APIKeyHashes []string `usage:"Hex HMAC-SHA256 hashes of accepted API keys, optionally prefixed with name:"`
}

// RateLimitConfig sets the request budgets of API clients.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Requests per window of a client IP"`
	KeyMax int           `default:"600" usage:"Requests per window of a named API key"`
	Window time.Duration `default:"1m"  usage:"Time a spent budget takes to refill"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Files: []string{"insights.yaml", "/etc/insights/insights.yaml"},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	ac.EnvPrefix = "INSIGHTS"
	ac.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceBackoffice:
		if c.Backoffice.URL == "" {
			return errors.New("back-office URL is required: set INSIGHTS_BACKOFFICE_URL")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set INSIGHTS_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown source %q: want %s or %s", c.Source, SourceBackoffice, SourcePostgres)
	}

	if c.Insights.CommissionRate <= 0 || c.Insights.CommissionRate > 1 {
		return errors.Errorf("commission rate %v out of (0, 1]", c.Insights.CommissionRate)
	}
	if c.Insights.SellerShare <= 0 || c.Insights.SellerShare > 1 {
		return errors.Errorf("seller share %v out of (0, 1]", c.Insights.SellerShare)
	}
	if c.Insights.TopN < 1 {
		return errors.Errorf("top N %d must be positive", c.Insights.TopN)
	}
	if _, err := time.LoadLocation(c.Insights.Timezone); err != nil {
		return errors.Wrapf(err, "timezone %q", c.Insights.Timezone)
	}
	if len(c.Auth.APIKeyHashes) > 0 && c.Auth.APIKeyPepper == "" {
		return errors.New("api key pepper is required when api key hashes are set")
	}
	if c.RateLimit.Max < 1 || c.RateLimit.KeyMax < 1 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit budgets and window must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's INSIGHTS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
