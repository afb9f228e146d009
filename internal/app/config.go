package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/kiosk-pos/internal/domain/tax"
)

// Catalog sources.
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
)

// DefaultReceiptDirName is created under the user's home directory when no
// receipt directory is configured.
const DefaultReceiptDirName = "kiosk-receipts"

// Config holds the kiosk configuration, loadable from environment variables
// (KIOSK_ prefix), flags, or YAML config files.
type Config struct {
	ReceiptDir  string         `yaml:"receipt_dir" usage:"Directory for receipt text files (default $HOME/kiosk-receipts)" flag:"receipt-dir"`
	DatabaseURL string         `yaml:"database_url" usage:"PostgreSQL URL of the receipt record store; empty disables it (KIOSK_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TaxRate     string         `yaml:"tax_rate" default:"0.06" usage:"Flat sales tax rate applied to the subtotal" flag:"tax-rate"`
	StoreName   string         `yaml:"store_name" default:"KIOSK RECEIPT" usage:"Receipt title line" flag:"store-name"`
	Catalog     string         `yaml:"catalog" default:"memory" usage:"Menu source: memory or postgres" flag:"catalog"`
	AdminAddr   string         `yaml:"admin_addr" default:"" usage:"Listen address for /livez and /readyz; empty disables" flag:"admin-addr"`
	Health      HealthConfig   `yaml:"health"`
	Graceful    GracefulConfig `yaml:"graceful"`
}

// HealthConfig controls background health checks.
type HealthConfig struct {
	Interval time.Duration `yaml:"interval" default:"10s" usage:"Health check interval" flag:"health-interval"`
}

// GracefulConfig controls admin server shutdown.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"5s" usage:"Maximum admin server shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "KIOSK",
		Files:     []string{"kiosk.yaml", "/etc/kiosk/config.yaml"},
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
	if err := cfg.applyPlatformDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults fills DatabaseURL from the conventional DATABASE_URL
// and resolves the default receipt directory in the user's home.
func (c *Config) applyPlatformDefaults() error {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.ReceiptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "resolve default receipt dir: set KIOSK_RECEIPT_DIR")
		}
		c.ReceiptDir = filepath.Join(home, DefaultReceiptDirName)
	}
	return nil
}

// Validate checks field values that the loader cannot.
func (c *Config) Validate() error {
	if _, err := tax.ParseRate(c.TaxRate); err != nil {
		return errors.Wrap(err, "tax rate")
	}
	switch c.Catalog {
	case CatalogMemory:
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres catalog requires a database URL: set KIOSK_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog %q: want %s or %s", c.Catalog, CatalogMemory, CatalogPostgres)
	}
	if c.Health.Interval <= 0 {
		return errors.Errorf("health interval must be positive, got %s", c.Health.Interval)
	}
	return nil
}

// TaxCalculator returns the configured flat-rate calculator.
func (c *Config) TaxCalculator() (*tax.FlatRate, error) {
	return tax.ParseRate(c.TaxRate)
}
