// Package config loads service settings from POS_* environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
	"github.com/jcmexdev/club-pos/internal/pkg/kv/filekv"
	"github.com/jcmexdev/club-pos/internal/pkg/kv/sqlite"
	"github.com/jcmexdev/club-pos/internal/pos/cart"
	"github.com/jcmexdev/club-pos/internal/pos/catalog"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090"`

	Backend     string `envconfig:"BACKEND" default:"sqlite"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"pos"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"pos.db"`
	FileDir     string `envconfig:"FILE_DIR" default:"data"`

	// OrderLogPath is the SQLite file holding the transition audit log. Empty
	// disables the log.
	OrderLogPath string `envconfig:"ORDERLOG_PATH" default:"orderlog.db"`

	CartTTL time.Duration `envconfig:"CART_TTL" default:"2h"`

	// MenuFile is a JSON list of courses. Empty serves the sample menu.
	MenuFile string `envconfig:"MENU_FILE"`

	DefaultOutlet     string `envconfig:"DEFAULT_OUTLET"`
	DefaultRestaurant string `envconfig:"DEFAULT_RESTAURANT"`

	TaxRate     decimal.Decimal `envconfig:"TAX_RATE" default:"0"`
	DeliveryFee decimal.Decimal `envconfig:"DELIVERY_FEE" default:"0"`

	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"pos-service"`
	OTelEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Environment  string `envconfig:"ENVIRONMENT" default:"local"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the POS_* environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("POS", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendMemory, BackendRedis, BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("config: cart TTL must not be negative")
	}
	if c.TaxRate.IsNegative() || c.DeliveryFee.IsNegative() {
		return fmt.Errorf("config: fees must not be negative")
	}
	return nil
}

// Fees returns the fee components to apply to every cart. Zero-valued fees
// are left out.
func (c Config) Fees() []cart.Fee {
	var fees []cart.Fee
	if c.TaxRate.IsPositive() {
		fees = append(fees, cart.Tax(c.TaxRate))
	}
	if c.DeliveryFee.IsPositive() {
		fees = append(fees, cart.DeliveryFee(c.DeliveryFee))
	}
	return fees
}

type pinger interface {
	Ping(ctx context.Context) error
}

// OpenStore opens the configured key-value backend. Network backends are
// pinged before returning.
func (c Config) OpenStore(ctx context.Context, logger *slog.Logger) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)
	switch strings.ToLower(c.Backend) {
	case BackendMemory:
		store = kv.NewMemoryStore()
	case BackendRedis:
		store = kv.NewRedisStore(c.RedisAddr, c.RedisPrefix)
	case BackendSQLite:
		store, err = sqlite.Open(c.SQLitePath)
	case BackendFile:
		store, err = filekv.Open(c.FileDir)
	default:
		return nil, fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s store: %w", c.Backend, err)
	}

	if p, ok := store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("config: %s store unreachable: %w", c.Backend, err)
		}
	}
	if logger != nil {
		logger.InfoContext(ctx, "kv store ready", "backend", c.Backend)
	}
	return store, nil
}

// Catalog loads MenuFile, or returns the sample menu when it is unset.
func (c Config) Catalog() (*catalog.Catalog, error) {
	if c.MenuFile == "" {
		return catalog.Sample(), nil
	}
	f, err := os.Open(c.MenuFile)
	if err != nil {
		return nil, fmt.Errorf("config: open menu %q: %w", c.MenuFile, err)
	}
	defer f.Close()
	cat, err := catalog.Load(f)
	if err != nil {
		return nil, fmt.Errorf("config: load menu %q: %w", c.MenuFile, err)
	}
	return cat, nil
}
