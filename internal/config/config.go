package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Catalog sources
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./wftracker.db"`

	CatalogURL    string `env:"CATALOG_URL" envDefault:"https://raw.githubusercontent.com/WFCD/warframe-items/master/data/json/All.json"`
	CatalogSource string `env:"CATALOG_SOURCE" envDefault:"remote"`
	// Zero disables the timeout.
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"0s"`
	// Cron expression for background refreshes; empty disables them.
	CatalogRefresh string `env:"CATALOG_REFRESH"`

	InventoryKey string `env:"INVENTORY_KEY" envDefault:"wf-inventory-fixed"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"console"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	LogFile        string `env:"LOG_FILE"`
	LogMaxSizeMB   int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups  int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:*,http://127.0.0.1:*"`
}

// Load reads an optional .env file and then the environment
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot
func (c Config) Validate() error {
	switch c.CatalogSource {
	case SourceRemote, SourceCache:
	default:
		return errors.Newf("unknown CATALOG_SOURCE %q (want %s or %s)", c.CatalogSource, SourceRemote, SourceCache)
	}
	if c.CatalogTimeout < 0 {
		return errors.New("CATALOG_TIMEOUT must not be negative")
	}
	if c.InventoryKey == "" {
		return errors.New("INVENTORY_KEY must not be empty")
	}
	return nil
}
