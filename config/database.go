package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"deskmetrics"`
	Password string `env:"PASSWORD" envDefault:"deskmetrics"`
	Name     string `env:"NAME"     envDefault:"deskmetrics"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the reference-data cache.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// ConfigStoreConfig contains settings for the encrypted config store.
type ConfigStoreConfig struct {
	// Passphrase derives the AES-256 key for values stored encrypted.
	// Required for production; development falls back to noop encryption.
	Passphrase string `env:"CONFIG_PASSPHRASE"`

	// CacheTTL bounds how long a decrypted value is served from memory
	// before the next read goes back to the database.
	CacheTTL time.Duration `env:"CONFIG_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to config store settings.
func (c *ConfigStoreConfig) Sanitize() {
	c.Passphrase = strings.TrimSpace(c.Passphrase)
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
}
