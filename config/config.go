package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and cache configuration
//   - helpdesk.go: Helpdesk collaborator configuration
//   - services.go: Service mode and schedule configuration
//   - retention.go: Retention tier configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (noop encryption fallback,
	// text log output). Set DEV=true or APP_ENV=development for dev mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Config store (encrypted key/value) configuration.
	ConfigStore ConfigStoreConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Helpdesk collaborator configuration
	Helpdesk HelpdeskConfig `envPrefix:"HELPDESK_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"scheduler"`

	// Pipeline schedule configuration
	Pipeline PipelineConfig

	// Retention tier configuration
	Retention RetentionConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.ConfigStore.Sanitize()
	c.Helpdesk.Sanitize()
	c.Pipeline.Sanitize()
	c.Retention.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsSchedulerEnabled returns true if the scheduler service is enabled.
func (c *AppConfig) IsSchedulerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeScheduler]
}

// IsPipelineOnceEnabled returns true if the one-shot pipeline run is enabled.
func (c *AppConfig) IsPipelineOnceEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModePipelineOnce]
}

// IsRetentionOnceEnabled returns true if the one-shot retention pass is enabled.
func (c *AppConfig) IsRetentionOnceEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeRetentionOnce]
}

// IsRetentionDryRunEnabled returns true if the read-only retention pass is enabled.
func (c *AppConfig) IsRetentionDryRunEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeRetentionDryRun]
}
