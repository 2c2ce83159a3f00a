package config

import (
	"strings"
	"time"
)

// HelpdeskConfig contains settings for the helpdesk API collaborator.
// The API key itself is not configured here; it lives in the encrypted
// config store so it can be rotated without a restart.
type HelpdeskConfig struct {
	// BaseURL is the helpdesk API root, e.g. https://desk.example.com/api/v2.
	BaseURL string `env:"BASE_URL"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// MaxRetries is the number of attempts after the first try for
	// retryable failures (429 and 5xx).
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`

	// BaseBackoff is the first retry delay; subsequent delays double.
	BaseBackoff time.Duration `env:"BASE_BACKOFF" envDefault:"500ms"`

	// PageSize is the per_page value used when paginating ticket lists.
	PageSize int `env:"PAGE_SIZE" envDefault:"100"`
}

// Sanitize applies guardrails to helpdesk configuration values.
func (c *HelpdeskConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.PageSize < 1 {
		c.PageSize = 100
	}
}
