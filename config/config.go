package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/omniquote-labs/omniquote/types"
)

var (
	Version    = "dev"
	CommitHash = "unknown"

	// Singleton instance
	configInstance *Config
	configOnce     sync.Once
)

// Default configuration constants
const (
	// Port settings
	DefaultAPIPort     = "8080"
	DefaultMetricsPort = "9090"
	MinPortNumber      = 1
	MaxPortNumber      = 65535

	// Database settings
	DefaultDBMaxConns  = 0 // 0 means unlimited (GORM default)
	DefaultDBIdleConns = 2 // GORM default
	DefaultDBBatchSize = 100

	// Cache settings
	DefaultTokenCacheSize = 4096
	DefaultGasPriceTTL    = 15 * time.Second

	// Timeout settings
	DefaultQuoteTimeout    = 8 * time.Second
	DefaultQueryTimeout    = 5 * time.Second
	DefaultCoolingDuration = 50 * time.Millisecond

	// Concurrent request settings
	DefaultMaxConcurrentRequests = 50
	MaxAllowedConcurrentRequests = 1000

	// Metrics settings
	DefaultMetricsPath = "/metrics"

	// Default environment
	DefaultEnvironment = "local"
)

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Port    string `json:"port"`
}

// SentryConfig contains configuration for Sentry integration
type SentryConfig struct {
	DSN                string  `json:"dsn"`
	SampleRate         float64 `json:"sample_rate"`
	TracesSampleRate   float64 `json:"traces_sample_rate"`
	ProfilesSampleRate float64 `json:"profiles_sample_rate"`
	Environment        string  `json:"environment"`
}

// StoreConfig contains configuration for the optional quote history database.
type StoreConfig struct {
	DSN         string `json:"dsn"`
	AutoMigrate bool   `json:"auto_migrate"`
	MaxConns    int    `json:"max_conns"`
	IdleConns   int    `json:"idle_conns"`
	BatchSize   int    `json:"batch_size"`
}

// Enabled reports whether quote history recording is configured.
func (sc StoreConfig) Enabled() bool {
	return sc.DSN != ""
}

// RabbitMQConfig contains configuration for the optional quote event stream.
type RabbitMQConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	VHost    string `json:"vhost"`
	User     string `json:"user"`
	Password string `json:"password"`
	Stream   string `json:"stream"`
}

func SetBuildInfo(v, commit string) {
	Version = v
	CommitHash = commit
}

type Config struct {
	listenPort            string
	logLevel              string
	logFormat             string
	environment           string
	quoteTimeout          time.Duration
	queryTimeout          time.Duration
	coolingDuration       time.Duration
	maxConcurrentRequests int
	tokenCacheSize        int
	gasPriceTTL           time.Duration
	chains                map[types.ChainID]*ChainConfig
	providerConfig        *ProviderConfig
	storeConfig           *StoreConfig
	mqConfig              *RabbitMQConfig
	metricsConfig         *MetricsConfig
	sentryConfig          *SentryConfig
}

func setDefaults() {
	viper.SetDefault("PORT", DefaultAPIPort)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("ENVIRONMENT", DefaultEnvironment)
	viper.SetDefault("QUOTE_TIMEOUT", DefaultQuoteTimeout)
	viper.SetDefault("QUERY_TIMEOUT", DefaultQueryTimeout)
	viper.SetDefault("COOLING_DURATION", DefaultCoolingDuration)
	viper.SetDefault("MAX_CONCURRENT_REQUESTS", DefaultMaxConcurrentRequests)
	viper.SetDefault("TOKEN_CACHE_SIZE", DefaultTokenCacheSize)
	viper.SetDefault("GAS_PRICE_TTL", DefaultGasPriceTTL)

	viper.SetDefault("DB_DSN", "")
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("DB_BATCH_SIZE", DefaultDBBatchSize)
	viper.SetDefault("DB_MAX_CONNS", DefaultDBMaxConns)
	viper.SetDefault("DB_IDLE_CONNS", DefaultDBIdleConns)

	viper.SetDefault("MQ_ENABLED", false)
	viper.SetDefault("MQ_HOST", "localhost")
	viper.SetDefault("MQ_PORT", 5552)
	viper.SetDefault("MQ_VHOST", "/")
	viper.SetDefault("MQ_USER", "guest")
	viper.SetDefault("MQ_PASSWORD", "guest")
	viper.SetDefault("MQ_STREAM", "omniquote-quotes")

	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_SAMPLE_RATE", 0.01)
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.01)
	viper.SetDefault("SENTRY_PROFILES_SAMPLE_RATE", 0.01)

	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_PATH", DefaultMetricsPath)
	viper.SetDefault("METRICS_PORT", DefaultMetricsPort)

	viper.SetDefault("PROVIDERS", "uniswap,openocean,lifi,squid")
	viper.SetDefault("OPENOCEAN_URL", DefaultOpenOceanURL)
	viper.SetDefault("LIFI_URL", DefaultLiFiURL)
	viper.SetDefault("SQUID_URL", DefaultSquidURL)

	// CHAINS has no default beyond the built-in chain table
}

func GetConfig() (*Config, error) {
	var err error

	configOnce.Do(func() {
		configInstance, err = loadConfig()
	})

	return configInstance, err
}

func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// just log without panic, local testing purpose only
		fmt.Fprintln(os.Stderr, "No .env file found")
	}
	viper.AutomaticEnv()
	setDefaults()

	chains, err := loadChains(viper.GetString("CHAINS"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		listenPort:            viper.GetString("PORT"),
		logLevel:              viper.GetString("LOG_LEVEL"),
		logFormat:             viper.GetString("LOG_FORMAT"),
		environment:           viper.GetString("ENVIRONMENT"),
		quoteTimeout:          viper.GetDuration("QUOTE_TIMEOUT"),
		queryTimeout:          viper.GetDuration("QUERY_TIMEOUT"),
		coolingDuration:       viper.GetDuration("COOLING_DURATION"),
		maxConcurrentRequests: viper.GetInt("MAX_CONCURRENT_REQUESTS"),
		tokenCacheSize:        viper.GetInt("TOKEN_CACHE_SIZE"),
		gasPriceTTL:           viper.GetDuration("GAS_PRICE_TTL"),
		chains:                chains,
		providerConfig: &ProviderConfig{
			Enabled:      splitList(viper.GetString("PROVIDERS")),
			OpenOceanURL: viper.GetString("OPENOCEAN_URL"),
			LiFiURL:      viper.GetString("LIFI_URL"),
			SquidURL:     viper.GetString("SQUID_URL"),
		},
		storeConfig: &StoreConfig{
			DSN:         viper.GetString("DB_DSN"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
			MaxConns:    viper.GetInt("DB_MAX_CONNS"),
			IdleConns:   viper.GetInt("DB_IDLE_CONNS"),
			BatchSize:   viper.GetInt("DB_BATCH_SIZE"),
		},
		mqConfig: &RabbitMQConfig{
			Enabled:  viper.GetBool("MQ_ENABLED"),
			Host:     viper.GetString("MQ_HOST"),
			Port:     viper.GetInt("MQ_PORT"),
			VHost:    viper.GetString("MQ_VHOST"),
			User:     viper.GetString("MQ_USER"),
			Password: viper.GetString("MQ_PASSWORD"),
			Stream:   viper.GetString("MQ_STREAM"),
		},
		metricsConfig: &MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
			Port:    viper.GetString("METRICS_PORT"),
		},
		sentryConfig: &SentryConfig{
			DSN:                viper.GetString("SENTRY_DSN"),
			SampleRate:         viper.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate:   viper.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			ProfilesSampleRate: viper.GetFloat64("SENTRY_PROFILES_SAMPLE_RATE"),
			Environment:        viper.GetString("ENVIRONMENT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadChains merges the built-in chain table with the optional CHAINS override,
// a JSON array of ChainConfig objects.
func loadChains(raw string) (map[types.ChainID]*ChainConfig, error) {
	chains := make(map[types.ChainID]*ChainConfig, len(defaultChains))
	for id, cc := range defaultChains {
		copied := *cc
		chains[id] = &copied
	}

	if raw == "" {
		return chains, nil
	}

	var overrides []*ChainConfig
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, types.NewConfigError("CHAINS is not valid JSON", err)
	}
	for _, cc := range overrides {
		if existing, ok := chains[cc.ChainID]; ok {
			existing.Merge(cc)
		} else {
			chains[cc.ChainID] = cc
		}
	}

	return chains, nil
}

func (c Config) Validate() error {
	if c.quoteTimeout <= 0 {
		return types.NewInvalidValueError("QUOTE_TIMEOUT", c.quoteTimeout.String(), "must be positive")
	}
	if c.maxConcurrentRequests <= 0 || c.maxConcurrentRequests > MaxAllowedConcurrentRequests {
		return types.NewInvalidValueError("MAX_CONCURRENT_REQUESTS",
			fmt.Sprintf("%d", c.maxConcurrentRequests),
			fmt.Sprintf("must be between 1 and %d", MaxAllowedConcurrentRequests))
	}
	if len(c.chains) == 0 {
		return types.NewConfigError("no chains configured", nil)
	}
	for _, cc := range c.chains {
		if err := cc.Validate(); err != nil {
			return err
		}
	}
	return c.providerConfig.Validate()
}

func (c Config) GetListenPort() string {
	return c.listenPort
}

func (c Config) GetLogLevel() slog.Level {
	switch c.logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) GetLogFormat() string {
	return c.logFormat
}

func (c Config) GetEnvironment() string {
	return c.environment
}

func (c Config) GetQuoteTimeout() time.Duration {
	return c.quoteTimeout
}

func (c Config) GetQueryTimeout() time.Duration {
	return c.queryTimeout
}

func (c Config) GetCoolingDuration() time.Duration {
	return c.coolingDuration
}

func (c Config) GetMaxConcurrentRequests() int {
	return c.maxConcurrentRequests
}

func (c Config) GetTokenCacheSize() int {
	return c.tokenCacheSize
}

func (c Config) GetGasPriceTTL() time.Duration {
	return c.gasPriceTTL
}

func (c Config) GetChains() map[types.ChainID]*ChainConfig {
	return c.chains
}

func (c Config) GetChain(id types.ChainID) (*ChainConfig, bool) {
	cc, ok := c.chains[id]
	return cc, ok
}

func (c Config) GetProviderConfig() *ProviderConfig {
	return c.providerConfig
}

func (c Config) GetStoreConfig() *StoreConfig {
	return c.storeConfig
}

func (c Config) GetRabbitMQConfig() *RabbitMQConfig {
	return c.mqConfig
}

func (c Config) GetMetricsConfig() *MetricsConfig {
	return c.metricsConfig
}

// GetSentryConfig returns nil when no DSN is configured.
func (c Config) GetSentryConfig() *SentryConfig {
	if c.sentryConfig == nil || c.sentryConfig.DSN == "" {
		return nil
	}
	return c.sentryConfig
}

// SetChains assigns the chain table for testing purposes.
func (c *Config) SetChains(chains map[types.ChainID]*ChainConfig) {
	c.chains = chains
}

// SetProviderConfig assigns the provider config for testing purposes.
func (c *Config) SetProviderConfig(pc *ProviderConfig) {
	c.providerConfig = pc
}

// SetMaxConcurrentRequests assigns the request limit for testing purposes.
func (c *Config) SetMaxConcurrentRequests(n int) {
	c.maxConcurrentRequests = n
}

// SetCoolingDuration assigns the retry cooldown for testing purposes.
func (c *Config) SetCoolingDuration(d time.Duration) {
	c.coolingDuration = d
}
